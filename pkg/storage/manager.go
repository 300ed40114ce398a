package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"

	"tweetstojson/pkg/logger"
	"tweetstojson/pkg/timeline"
)

// Snapshot is what a previous run left in the output file
type Snapshot struct {
	Items   timeline.Collection
	SinceID string
	Count   int
}

// Manager loads and atomically rewrites the output file
type Manager struct {
	path       string
	order      timeline.Order
	userSchema *gojsonschema.Schema
	logger     logger.Logger

	// set by Load when the existing file could not be parsed
	corrupt bool
}

// NewManager creates a manager for the file at path. schemaPath is optional;
// when set the schema is compiled here so a bad schema fails before any
// request is made.
func NewManager(path string, order timeline.Order, schemaPath string, log logger.Logger) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("output path is empty")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	manager := &Manager{
		path:   path,
		order:  order,
		logger: log,
	}

	if schemaPath != "" {
		schema, err := LoadSchema(schemaPath)
		if err != nil {
			return nil, err
		}
		manager.userSchema = schema
	}

	return manager, nil
}

// Path returns the output file path
func (m *Manager) Path() string {
	return m.path
}

// Load reads the existing collection. Any failure yields an empty snapshot.
func (m *Manager) Load() Snapshot {
	empty := Snapshot{Items: timeline.Collection{}}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.InfoWithFields("no existing output file", map[string]interface{}{
				"path": m.path,
			})
		} else {
			m.logger.WarnWithFields("failed to read output file, starting fresh", map[string]interface{}{
				"path":  m.path,
				"error": err.Error(),
			})
		}
		return empty
	}

	items, err := decodeCollection(data)
	if err != nil {
		m.corrupt = true
		m.logger.WarnWithFields("output file is malformed, starting fresh", map[string]interface{}{
			"path":  m.path,
			"error": err.Error(),
		})
		return empty
	}

	snapshot := Snapshot{
		Items:   items,
		SinceID: timeline.ResumeBoundary(items, m.order),
		Count:   len(items),
	}

	m.logger.InfoWithFields("output file loaded", map[string]interface{}{
		"path":     m.path,
		"count":    snapshot.Count,
		"since_id": snapshot.SinceID,
	})

	return snapshot
}

func decodeCollection(data []byte) (timeline.Collection, error) {
	if err := validate(builtinSchema, "collection", data); err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var items timeline.Collection
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after collection")
	}
	if items == nil {
		items = timeline.Collection{}
	}
	return items, nil
}

// Encode renders a collection the way it is stored: a 2-space indented JSON
// array followed by a newline
func Encode(items timeline.Collection) ([]byte, error) {
	if items == nil {
		items = timeline.Collection{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(items); err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return buf.Bytes(), nil
}

// Save validates and atomically replaces the output file
func (m *Manager) Save(items timeline.Collection) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}

	if err := validate(builtinSchema, "collection", data); err != nil {
		return err
	}
	if m.userSchema != nil {
		if err := validate(m.userSchema, "output", data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if m.corrupt {
		if err := m.backup(); err != nil {
			return err
		}
	}

	if err := writeAtomic(m.path, data); err != nil {
		return err
	}

	m.logger.DebugWithFields("output file saved", map[string]interface{}{
		"path":  m.path,
		"count": len(items),
		"bytes": len(data),
	})

	return nil
}

func writeAtomic(path string, data []byte) error {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary output file: %w", err)
	}
	tempPath := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set output file mode: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace output file: %w", err)
	}

	return nil
}

// BackupPath is where a corrupt output file is copied before being replaced
func (m *Manager) BackupPath() string {
	return m.path + ".bak"
}

func (m *Manager) backup() error {
	src, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open output file for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(m.BackupPath())
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy output file to backup: %w", err)
	}

	m.logger.WarnWithFields("malformed output file backed up", map[string]interface{}{
		"backup": m.BackupPath(),
	})
	m.corrupt = false
	return nil
}
