package twitter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the default API host
	BaseURL = "https://api.twitter.com"

	// UserTimelineEndpoint is the v1.1 user timeline path
	UserTimelineEndpoint = "/1.1/statuses/user_timeline.json"

	// WebURL is the public site used for permalinks
	WebURL = "https://twitter.com"

	// DefaultCount is the page size used when none is configured
	DefaultCount = 200

	// MaxCount is the largest page the endpoint serves
	MaxCount = 200
)

// TimelineParams are the query parameters of one page request
type TimelineParams struct {
	ScreenName     string
	Count          int
	MaxID          string
	SinceID        string
	IncludeRTs     bool
	ExcludeReplies bool
	TrimUser       bool
	TweetMode      string
	Extra          map[string]string
}

// Values encodes the params for the query string. Extra entries are
// forwarded verbatim but never replace the cursor parameters.
func (p TimelineParams) Values() url.Values {
	params := url.Values{}
	for k, v := range p.Extra {
		params.Set(k, v)
	}

	params.Set("screen_name", p.ScreenName)
	params.Set("count", strconv.Itoa(clampCount(p.Count)))
	params.Set("include_rts", strconv.FormatBool(p.IncludeRTs))
	params.Set("exclude_replies", strconv.FormatBool(p.ExcludeReplies))
	if p.TrimUser {
		params.Set("trim_user", "true")
	}
	if p.TweetMode != "" {
		params.Set("tweet_mode", p.TweetMode)
	}

	params.Del("max_id")
	params.Del("since_id")
	if p.MaxID != "" {
		params.Set("max_id", p.MaxID)
	}
	if p.SinceID != "" {
		params.Set("since_id", p.SinceID)
	}
	return params
}

func clampCount(count int) int {
	if count <= 0 {
		return DefaultCount
	}
	if count > MaxCount {
		return MaxCount
	}
	return count
}

// GetUserTimelineURL constructs the URL for one page of a user's timeline
func GetUserTimelineURL(baseURL string, params TimelineParams) string {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), UserTimelineEndpoint, params.Values().Encode())
}

// StatusURL constructs the permalink of a status
func StatusURL(screenName, id string) string {
	if id == "" {
		return ""
	}
	if screenName == "" {
		screenName = "i/web"
	}
	return fmt.Sprintf("%s/%s/status/%s", WebURL, screenName, id)
}

// IsValidScreenName checks a handle against the platform's rules
func IsValidScreenName(name string) bool {
	if name == "" || len(name) > 15 {
		return false
	}

	for _, char := range name {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}

	return true
}

// SanitizeScreenName strips a leading @ and surrounding slashes or spaces
func SanitizeScreenName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "@")
	return strings.Trim(name, "/ ")
}
