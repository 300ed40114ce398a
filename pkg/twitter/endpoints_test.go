package twitter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserTimelineURL(t *testing.T) {
	raw := GetUserTimelineURL("https://example.test/", TimelineParams{ScreenName: "jack", Count: 500, TrimUser: true})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "example.test", u.Host)
	assert.Equal(t, UserTimelineEndpoint, u.Path)
	assert.Equal(t, "200", u.Query().Get("count"))
	assert.Equal(t, "true", u.Query().Get("trim_user"))
}

func TestStatusURL(t *testing.T) {
	assert.Equal(t, "https://twitter.com/jack/status/20", StatusURL("jack", "20"))
	assert.Equal(t, "https://twitter.com/i/web/status/20", StatusURL("", "20"))
	assert.Equal(t, "", StatusURL("jack", ""))
}

func TestIsValidScreenName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple", "jack", true},
		{"underscore and digits", "go_lang_2", true},
		{"empty", "", false},
		{"too long", "abcdefghijklmnop", false},
		{"dot", "jack.dorsey", false},
		{"at sign", "@jack", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidScreenName(tt.input))
		})
	}
}

func TestSanitizeScreenName(t *testing.T) {
	assert.Equal(t, "jack", SanitizeScreenName(" @jack/ "))
	assert.Equal(t, "jack", SanitizeScreenName("jack"))
}
