package twitter

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"tweetstojson/pkg/errors"
	"tweetstojson/pkg/logger"
)

// DefaultNitterURL is the public instance used when none is configured
const DefaultNitterURL = "https://nitter.net"

var statusIDPattern = regexp.MustCompile(`/status/(\d+)`)

// NitterClient reads a user's timeline from a Nitter instance's RSS feed.
// The feed only carries the most recent posts and has no paging, so cursor
// parameters are applied to the fetched entries.
type NitterClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewNitterClient creates a client for the given Nitter instance
func NewNitterClient(baseURL string, timeout time.Duration, log logger.Logger) *NitterClient {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultNitterURL
	}
	return &NitterClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// FeedURL returns the RSS URL for a screen name
func (n *NitterClient) FeedURL(screenName string) string {
	return fmt.Sprintf("%s/%s/rss", n.baseURL, screenName)
}

// UserTimeline returns the feed entries that fall inside the requested
// window, newest first
func (n *NitterClient) UserTimeline(ctx context.Context, params TimelineParams) ([]Tweet, error) {
	feedURL := n.FeedURL(params.ScreenName)

	parser := gofeed.NewParser()
	parser.Client = n.httpClient
	parser.UserAgent = userAgent

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if ok := asHTTPError(err, &httpErr); ok {
			return nil, errors.New(errors.FromStatusCode(httpErr.StatusCode), httpErr.StatusCode,
				"nitter feed for @%s: %s", params.ScreenName, httpErr.Status)
		}
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "nitter feed for @%s: %v", params.ScreenName, err)
	}

	maxID, _ := parseStatusID(params.MaxID)
	sinceID, _ := parseStatusID(params.SinceID)

	tweets := make([]Tweet, 0, len(feed.Items))
	for _, item := range feed.Items {
		tweet, id, ok := n.tweetFromItem(item, params.ScreenName)
		if !ok {
			continue
		}
		if params.MaxID != "" && id > maxID {
			continue
		}
		if params.SinceID != "" && id <= sinceID {
			continue
		}
		if !params.IncludeRTs && tweet.RetweetedStatus != nil {
			continue
		}
		if params.ExcludeReplies && tweet.InReplyToScreenName != "" {
			continue
		}
		tweets = append(tweets, tweet)
	}

	sort.SliceStable(tweets, func(i, j int) bool {
		a, _ := parseStatusID(tweets[i].IDStr)
		b, _ := parseStatusID(tweets[j].IDStr)
		return a > b
	})

	if limit := clampCount(params.Count); len(tweets) > limit {
		tweets = tweets[:limit]
	}

	n.logger.DebugWithFields("nitter feed parsed", map[string]interface{}{
		"screen_name": params.ScreenName,
		"entries":     len(feed.Items),
		"kept":        len(tweets),
	})

	return tweets, nil
}

func (n *NitterClient) tweetFromItem(item *gofeed.Item, screenName string) (Tweet, uint64, bool) {
	match := statusIDPattern.FindStringSubmatch(item.Link)
	if match == nil {
		match = statusIDPattern.FindStringSubmatch(item.GUID)
	}
	if match == nil {
		n.logger.WarnWithFields("feed entry has no status id", map[string]interface{}{
			"link": item.Link,
		})
		return Tweet{}, 0, false
	}
	id, err := parseStatusID(match[1])
	if err != nil {
		return Tweet{}, 0, false
	}

	// An undated entry keeps its place in the cursor walk but carries no
	// created_at, so the exporter rejects it.
	createdAt := ""
	if item.PublishedParsed != nil {
		createdAt = item.PublishedParsed.UTC().Format(time.RubyDate)
	} else {
		n.logger.WarnWithFields("feed entry has no publication date", map[string]interface{}{
			"id": match[1],
		})
	}

	author := screenName
	if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
		author = strings.TrimPrefix(item.Authors[0].Name, "@")
	}

	text := strings.TrimSpace(item.Title)
	tweet := Tweet{
		ID:        int64(id),
		IDStr:     match[1],
		CreatedAt: createdAt,
		FullText:  text,
		User:      User{ScreenName: author},
	}

	if !strings.EqualFold(author, screenName) || strings.HasPrefix(text, "RT by ") {
		tweet.RetweetedStatus = &Tweet{
			IDStr:     tweet.IDStr,
			CreatedAt: tweet.CreatedAt,
			FullText:  text,
			User:      User{ScreenName: author},
		}
		tweet.User = User{ScreenName: screenName}
	}
	if strings.HasPrefix(text, "R to @") {
		rest := strings.TrimPrefix(text, "R to @")
		if i := strings.IndexAny(rest, ": "); i > 0 {
			tweet.InReplyToScreenName = rest[:i]
		}
	}

	return tweet, id, true
}

func parseStatusID(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func asHTTPError(err error, target *gofeed.HTTPError) bool {
	if e, ok := err.(gofeed.HTTPError); ok {
		*target = e
		return true
	}
	if e, ok := err.(*gofeed.HTTPError); ok {
		*target = *e
		return true
	}
	return false
}
