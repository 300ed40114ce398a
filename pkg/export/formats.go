package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"tweetstojson/pkg/timeline"
	"tweetstojson/pkg/twitter"
)

// StandardFields are the keys the standard format can emit, in output order
var StandardFields = []string{
	"id", "timestamp", "text", "url", "screen_name", "lang",
	"reply_to", "retweeted_from", "retweet_count", "favorite_count",
	"hashtags", "urls", "mentions",
}

// Minimal keeps only the identity, the sort key and the text
func Minimal(tweet twitter.Tweet) (timeline.Item, error) {
	id, err := identityOf(tweet)
	if err != nil {
		return nil, err
	}
	ts, err := timestampOf(tweet)
	if err != nil {
		return nil, err
	}
	return timeline.Item{
		timeline.IDField:        id,
		timeline.TimestampField: ts,
		"text":                  tweet.Content(),
	}, nil
}

type standard struct {
	fields []string
}

func newStandard(fields []string) (Exporter, error) {
	for _, f := range fields {
		if !slices.Contains(StandardFields, f) {
			return nil, fmt.Errorf("unknown export field %q", f)
		}
	}
	return &standard{fields: fields}, nil
}

func (s *standard) Export(tweet twitter.Tweet) (timeline.Item, error) {
	item, err := Minimal(tweet)
	if err != nil {
		return nil, err
	}

	item["url"] = tweet.Permalink()
	item["screen_name"] = tweet.User.ScreenName
	item["lang"] = tweet.Lang
	item["retweet_count"] = tweet.RetweetCount
	item["favorite_count"] = tweet.FavoriteCount

	if tweet.InReplyToStatusIDStr != "" {
		item["reply_to"] = tweet.InReplyToStatusIDStr
	} else {
		item["reply_to"] = nil
	}
	if rt := tweet.RetweetedStatus; rt != nil {
		item["retweeted_from"] = rt.User.ScreenName
		item["text"] = rt.Content()
	} else {
		item["retweeted_from"] = nil
	}

	hashtags := make([]string, 0, len(tweet.Entities.Hashtags))
	for _, h := range tweet.Entities.Hashtags {
		hashtags = append(hashtags, h.Text)
	}
	urls := make([]string, 0, len(tweet.Entities.URLs))
	for _, u := range tweet.Entities.URLs {
		if u.ExpandedURL != "" {
			urls = append(urls, u.ExpandedURL)
		} else {
			urls = append(urls, u.URL)
		}
	}
	mentions := make([]string, 0, len(tweet.Entities.UserMentions))
	for _, m := range tweet.Entities.UserMentions {
		mentions = append(mentions, m.ScreenName)
	}
	item["hashtags"] = hashtags
	item["urls"] = urls
	item["mentions"] = mentions

	if len(s.fields) == 0 {
		return item, nil
	}

	filtered := timeline.Item{
		timeline.IDField:        item[timeline.IDField],
		timeline.TimestampField: item[timeline.TimestampField],
	}
	for _, f := range s.fields {
		filtered[f] = item[f]
	}
	return filtered, nil
}

// Raw passes the status object through with a string id and a timestamp
func Raw(tweet twitter.Tweet) (timeline.Item, error) {
	id, err := identityOf(tweet)
	if err != nil {
		return nil, err
	}
	ts, err := timestampOf(tweet)
	if err != nil {
		return nil, err
	}

	data, err := tweet.RawJSON()
	if err != nil {
		return nil, fmt.Errorf("tweet %s: %w", id, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var item timeline.Item
	if err := decoder.Decode(&item); err != nil {
		return nil, fmt.Errorf("tweet %s: decode raw status: %w", id, err)
	}
	if item == nil {
		return nil, fmt.Errorf("tweet %s: raw status is not an object", id)
	}

	item[timeline.IDField] = id
	item[timeline.TimestampField] = ts
	return item, nil
}
