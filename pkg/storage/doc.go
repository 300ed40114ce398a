// Package storage reads and writes the output file holding the saved
// collection.
//
// The Manager loads the existing file at startup and derives the resume
// boundary from it. A file that is missing or cannot be parsed never stops
// a run: the run starts from an empty collection, and a corrupt file is
// copied aside before it is replaced.
//
// Writes are atomic. The collection is encoded to a temporary file in the
// same directory, synced and renamed over the target, so an interrupted run
// leaves the previous file intact. Before writing, the document is checked
// against the built-in collection schema and, when configured, a user
// supplied JSON Schema.
//
// Usage:
//
//	manager, err := storage.NewManager("tweets.json", timeline.Ascending, "", log)
//	if err != nil {
//	    return err
//	}
//
//	snapshot := manager.Load()
//	merged := timeline.Reconcile(snapshot.Items, fetched, timeline.Ascending)
//	if err := manager.Save(merged); err != nil {
//	    return err
//	}
package storage
