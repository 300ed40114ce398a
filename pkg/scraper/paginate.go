package scraper

import (
	"context"

	"tweetstojson/pkg/export"
	"tweetstojson/pkg/logger"
	"tweetstojson/pkg/timeline"
	"tweetstojson/pkg/twitter"
)

// StopReason says why pagination ended
type StopReason string

const (
	StopEmptyPage    StopReason = "empty_page"
	StopNoProgress   StopReason = "no_progress"
	StopRequestError StopReason = "request_error"
	StopCancelled    StopReason = "cancelled"
)

// Stats describes one pagination pass
type Stats struct {
	Pages      int
	Fetched    int
	Skipped    int
	StopReason StopReason
	Err        error
}

// cursor is the paging state of a single pass
type cursor struct {
	lastID     string
	prevLastID string
	sinceID    string
}

func (c cursor) apply(params twitter.TimelineParams) twitter.TimelineParams {
	params.MaxID = c.lastID
	params.SinceID = c.sinceID
	return params
}

// Paginate walks the timeline backwards from the newest post until a page
// comes back empty, the oldest id stops moving, or a request fails. Items
// are returned in fetch order and may repeat across pages since max_id is
// inclusive.
func Paginate(ctx context.Context, client TimelineClient, params twitter.TimelineParams, sinceID string,
	exporter export.Exporter, progress ProgressReporter, log logger.Logger) ([]timeline.Item, Stats) {
	if log == nil {
		log = logger.GetLogger()
	}

	var (
		items []timeline.Item
		stats Stats
		c     = cursor{sinceID: sinceID}
	)

	for {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("pagination cancelled")
			stats.StopReason = StopCancelled
			stats.Err = err
			return items, stats
		}

		if progress != nil {
			progress.Tick()
		}
		stats.Pages++

		request := c.apply(params)
		page, err := client.UserTimeline(ctx, request)
		logger.LogPage(log, stats.Pages, request.MaxID, request.SinceID, len(page), err)
		if err != nil {
			stats.StopReason = StopRequestError
			if ctx.Err() != nil {
				stats.StopReason = StopCancelled
			}
			stats.Err = err
			return items, stats
		}
		if len(page) == 0 {
			stats.StopReason = StopEmptyPage
			return items, stats
		}

		for _, tweet := range page {
			item, err := exporter.Export(tweet)
			if err != nil {
				stats.Skipped++
				log.WithError(err).WithField("id", tweet.Identity()).Warn("skipping tweet that cannot be exported")
				continue
			}
			items = append(items, item)
			stats.Fetched++
		}

		c.lastID = page[len(page)-1].Identity()
		if c.lastID == c.prevLastID {
			stats.StopReason = StopNoProgress
			return items, stats
		}
		c.prevLastID = c.lastID
	}
}
