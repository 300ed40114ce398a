package twitter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Tweet is one status as returned by statuses/user_timeline. Raw keeps the
// exact JSON object so exporters can pass through fields not modelled here.
type Tweet struct {
	ID                   int64    `json:"id"`
	IDStr                string   `json:"id_str"`
	CreatedAt            string   `json:"created_at"`
	Text                 string   `json:"text,omitempty"`
	FullText             string   `json:"full_text,omitempty"`
	Truncated            bool     `json:"truncated"`
	Lang                 string   `json:"lang,omitempty"`
	Source               string   `json:"source,omitempty"`
	InReplyToStatusIDStr string   `json:"in_reply_to_status_id_str,omitempty"`
	InReplyToScreenName  string   `json:"in_reply_to_screen_name,omitempty"`
	RetweetCount         int      `json:"retweet_count"`
	FavoriteCount        int      `json:"favorite_count"`
	User                 User     `json:"user"`
	Entities             Entities `json:"entities"`
	RetweetedStatus      *Tweet   `json:"retweeted_status,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// User is the subset of the author object the exporters use
type User struct {
	IDStr      string `json:"id_str"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

// Entities holds parsed hashtags, links and mentions
type Entities struct {
	Hashtags     []Hashtag     `json:"hashtags"`
	URLs         []URLEntity   `json:"urls"`
	UserMentions []UserMention `json:"user_mentions"`
}

type Hashtag struct {
	Text string `json:"text"`
}

type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
}

type UserMention struct {
	ScreenName string `json:"screen_name"`
}

// APIError is one entry of the error envelope the API returns on failure
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errorResponse covers both the v1.1 envelope and the problem+json shape
type errorResponse struct {
	Errors []APIError `json:"errors"`
	Title  string     `json:"title"`
	Detail string     `json:"detail"`
}

func (e errorResponse) message() string {
	if len(e.Errors) > 0 && e.Errors[0].Message != "" {
		return e.Errors[0].Message
	}
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// UnmarshalJSON decodes a status and retains its raw bytes
func (t *Tweet) UnmarshalJSON(data []byte) error {
	type plain Tweet
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Tweet(p)
	t.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Identity returns the id as a decimal string
func (t *Tweet) Identity() string {
	if t.IDStr != "" {
		return t.IDStr
	}
	if t.ID != 0 {
		return strconv.FormatInt(t.ID, 10)
	}
	return ""
}

// CreatedTime parses created_at
func (t *Tweet) CreatedTime() (time.Time, error) {
	ts, err := time.Parse(time.RubyDate, t.CreatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("tweet %s: invalid created_at %q: %w", t.Identity(), t.CreatedAt, err)
	}
	return ts, nil
}

// Content returns the untruncated text when the API supplied it
func (t *Tweet) Content() string {
	if t.FullText != "" {
		return t.FullText
	}
	return t.Text
}

// Permalink returns the public URL of the status
func (t *Tweet) Permalink() string {
	return StatusURL(t.User.ScreenName, t.Identity())
}

// RawJSON returns the original JSON object, or the modelled fields when the
// tweet was not decoded from the API
func (t *Tweet) RawJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	return json.Marshal(t)
}
