package scraper

import (
	"context"

	"tweetstojson/pkg/storage"
	"tweetstojson/pkg/timeline"
	"tweetstojson/pkg/twitter"
)

// TimelineClient fetches one page of a user's timeline
type TimelineClient interface {
	UserTimeline(ctx context.Context, params twitter.TimelineParams) ([]twitter.Tweet, error)
}

// Store holds the collection between runs
type Store interface {
	Load() storage.Snapshot
	Save(items timeline.Collection) error
	Path() string
}

// ProgressReporter is ticked once per page request
type ProgressReporter interface {
	Tick()
}
