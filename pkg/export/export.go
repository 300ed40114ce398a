// Package export turns decoded statuses into the items written to the
// output file. Each format is an Exporter selected by name at startup.
package export

import (
	"fmt"
	"sort"
	"time"

	"tweetstojson/pkg/timeline"
	"tweetstojson/pkg/twitter"
)

const (
	FormatMinimal  = "minimal"
	FormatStandard = "standard"
	FormatRaw      = "raw"
)

// Exporter maps one raw status to an output item. An error means the status
// cannot be represented and is skipped by the caller.
type Exporter interface {
	Export(tweet twitter.Tweet) (timeline.Item, error)
}

// ExporterFunc adapts a plain function to the Exporter interface
type ExporterFunc func(tweet twitter.Tweet) (timeline.Item, error)

func (f ExporterFunc) Export(tweet twitter.Tweet) (timeline.Item, error) {
	return f(tweet)
}

type factory func(fields []string) (Exporter, error)

var registry = map[string]factory{
	FormatMinimal: func(fields []string) (Exporter, error) {
		if len(fields) > 0 {
			return nil, fmt.Errorf("format %q does not accept a field list", FormatMinimal)
		}
		return ExporterFunc(Minimal), nil
	},
	FormatStandard: newStandard,
	FormatRaw: func(fields []string) (Exporter, error) {
		if len(fields) > 0 {
			return nil, fmt.Errorf("format %q does not accept a field list", FormatRaw)
		}
		return ExporterFunc(Raw), nil
	},
}

// New returns the exporter registered under format. An empty format selects
// the standard one.
func New(format string, fields []string) (Exporter, error) {
	if format == "" {
		format = FormatStandard
	}
	f, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (available: %v)", format, Formats())
	}
	return f(fields)
}

// Formats lists the registered format names
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// timestampOf renders created_at as RFC3339 UTC
func timestampOf(tweet twitter.Tweet) (string, error) {
	created, err := tweet.CreatedTime()
	if err != nil {
		return "", err
	}
	return created.UTC().Format(time.RFC3339), nil
}

func identityOf(tweet twitter.Tweet) (string, error) {
	id := tweet.Identity()
	if id == "" {
		return "", fmt.Errorf("tweet has no id")
	}
	return id, nil
}
