package scraper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetstojson/pkg/config"
	"tweetstojson/pkg/errors"
	"tweetstojson/pkg/export"
	"tweetstojson/pkg/logger"
	"tweetstojson/pkg/storage"
	"tweetstojson/pkg/timeline"
	"tweetstojson/pkg/twitter"
	"tweetstojson/pkg/ui"
)

var epoch = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func makeTweet(id int) twitter.Tweet {
	return twitter.Tweet{
		IDStr:     strconv.Itoa(id),
		CreatedAt: epoch.Add(time.Duration(id) * time.Minute).Format(time.RubyDate),
		FullText:  fmt.Sprintf("tweet %d", id),
		User:      twitter.User{ScreenName: "jack"},
	}
}

// fakeTimeline serves a fixed newest-first timeline and honours max_id,
// since_id and count the way the real endpoint does
type fakeTimeline struct {
	mu     sync.Mutex
	tweets []twitter.Tweet
	calls  []twitter.TimelineParams
	failOn int
}

func newFakeTimeline(ids ...int) *fakeTimeline {
	f := &fakeTimeline{}
	f.add(ids...)
	return f
}

// add publishes tweets; ids must be larger than the ones already present
func (f *fakeTimeline) add(ids ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.tweets = append([]twitter.Tweet{makeTweet(id)}, f.tweets...)
	}
}

func (f *fakeTimeline) UserTimeline(ctx context.Context, params twitter.TimelineParams) ([]twitter.Tweet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, params)
	if f.failOn == len(f.calls) {
		return nil, errors.New(errors.ErrorTypeServerError, 503, "over capacity")
	}

	count := params.Count
	if count <= 0 {
		count = 200
	}
	var page []twitter.Tweet
	for _, tweet := range f.tweets {
		id, _ := strconv.Atoi(tweet.IDStr)
		if params.MaxID != "" {
			if maxID, _ := strconv.Atoi(params.MaxID); id > maxID {
				continue
			}
		}
		if params.SinceID != "" {
			if sinceID, _ := strconv.Atoi(params.SinceID); id <= sinceID {
				continue
			}
		}
		page = append(page, tweet)
		if len(page) == count {
			break
		}
	}
	return page, nil
}

func (f *fakeTimeline) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// staticPage returns the same page on every call
type staticPage struct {
	page  []twitter.Tweet
	calls int
}

func (s *staticPage) UserTimeline(ctx context.Context, params twitter.TimelineParams) ([]twitter.Tweet, error) {
	s.calls++
	return s.page, nil
}

type countingProgress struct{ ticks int }

func (c *countingProgress) Tick() { c.ticks++ }

func itemIDs(items []timeline.Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID())
	}
	return ids
}

var minimal = export.ExporterFunc(export.Minimal)

func TestPaginateEmptyFirstPage(t *testing.T) {
	client := newFakeTimeline()
	progress := &countingProgress{}

	items, stats := Paginate(context.Background(), client, twitter.TimelineParams{ScreenName: "jack"}, "", minimal, progress, logger.NewTestLogger())

	assert.Empty(t, items)
	assert.Equal(t, 1, client.callCount())
	assert.Equal(t, 1, progress.ticks)
	assert.Equal(t, StopEmptyPage, stats.StopReason)
	assert.NoError(t, stats.Err)
}

func TestPaginateStopsWhenPageRepeats(t *testing.T) {
	client := &staticPage{page: []twitter.Tweet{makeTweet(2), makeTweet(1)}}
	progress := &countingProgress{}

	items, stats := Paginate(context.Background(), client, twitter.TimelineParams{ScreenName: "jack"}, "", minimal, progress, logger.NewTestLogger())

	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 2, progress.ticks)
	assert.Equal(t, StopNoProgress, stats.StopReason)
	assert.Equal(t, []string{"2", "1", "2", "1"}, itemIDs(items))
}

func TestPaginateWalksBackwards(t *testing.T) {
	client := newFakeTimeline(101, 102, 103, 104, 105)

	items, stats := Paginate(context.Background(), client, twitter.TimelineParams{ScreenName: "jack", Count: 2}, "", minimal, nil, logger.NewTestLogger())

	assert.Equal(t, 5, stats.Pages)
	assert.Equal(t, StopNoProgress, stats.StopReason)
	assert.Len(t, timeline.Dedup(items), 5)

	maxIDs := make([]string, 0, len(client.calls))
	for _, call := range client.calls {
		maxIDs = append(maxIDs, call.MaxID)
		assert.Empty(t, call.SinceID)
		assert.Equal(t, "jack", call.ScreenName)
	}
	assert.Equal(t, []string{"", "104", "103", "102", "101"}, maxIDs)
}

func TestPaginatePassesSinceID(t *testing.T) {
	client := newFakeTimeline(101, 102, 103)

	items, _ := Paginate(context.Background(), client, twitter.TimelineParams{ScreenName: "jack"}, "102", minimal, nil, logger.NewTestLogger())

	assert.Equal(t, []string{"103", "103"}, itemIDs(items))
	for _, call := range client.calls {
		assert.Equal(t, "102", call.SinceID)
	}
}

func TestPaginateRequestErrorIsFailSoft(t *testing.T) {
	client := newFakeTimeline(101, 102, 103, 104)
	client.failOn = 2
	progress := &countingProgress{}
	log := logger.NewTestLogger()

	items, stats := Paginate(context.Background(), client, twitter.TimelineParams{ScreenName: "jack", Count: 2}, "", minimal, progress, log)

	assert.Equal(t, []string{"104", "103"}, itemIDs(items))
	assert.Equal(t, StopRequestError, stats.StopReason)
	assert.Equal(t, errors.ErrorTypeServerError, errors.TypeOf(stats.Err))
	assert.Equal(t, 2, progress.ticks)
	assert.True(t, log.HasError())
}

func TestPaginateSkipsUnexportableItems(t *testing.T) {
	client := newFakeTimeline(101, 102, 103)
	bad := makeTweet(101)
	bad.CreatedAt = "garbage"
	client.tweets[2] = bad
	log := logger.NewTestLogger()

	items, stats := Paginate(context.Background(), client, twitter.TimelineParams{ScreenName: "jack"}, "", minimal, nil, log)

	assert.Equal(t, []string{"103", "102"}, itemIDs(items))
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, StopNoProgress, stats.StopReason)
	assert.Equal(t, "101", client.calls[1].MaxID, "cursor advances over skipped items")
	assert.True(t, log.HasMessage("skipping tweet that cannot be exported"))
}

func TestPaginateCancelled(t *testing.T) {
	client := newFakeTimeline(101)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, stats := Paginate(ctx, client, twitter.TimelineParams{ScreenName: "jack"}, "", minimal, nil, logger.NewTestLogger())

	assert.Empty(t, items)
	assert.Zero(t, client.callCount())
	assert.Equal(t, StopCancelled, stats.StopReason)
	assert.ErrorIs(t, stats.Err, context.Canceled)
}

// cancellingTimeline cancels the run after serving a number of pages
type cancellingTimeline struct {
	inner  TimelineClient
	after  int
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingTimeline) UserTimeline(ctx context.Context, params twitter.TimelineParams) ([]twitter.Tweet, error) {
	c.calls++
	if c.calls > c.after {
		c.cancel()
		return nil, fmt.Errorf("fetch timeline for @%s: %w", params.ScreenName, ctx.Err())
	}
	return c.inner.UserTimeline(ctx, params)
}

func TestPaginateCancelledMidRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &cancellingTimeline{inner: newFakeTimeline(101, 102, 103), after: 1, cancel: cancel}

	items, stats := Paginate(ctx, client, twitter.TimelineParams{ScreenName: "jack", Count: 2}, "", minimal, nil, logger.NewTestLogger())

	assert.Equal(t, []string{"103", "102"}, itemIDs(items))
	assert.Equal(t, StopCancelled, stats.StopReason, "a request aborted by cancellation is not a request error")
	assert.ErrorIs(t, stats.Err, context.Canceled)
}

func TestResultSummary(t *testing.T) {
	tests := []struct {
		initial, final int
		want           string
	}{
		{0, 0, "Found 0 items."},
		{0, 1, "Found 1 item."},
		{0, 7, "Found 7 items."},
		{5, 7, "2 new items added."},
		{5, 6, "1 new item added."},
		{5, 5, "No new items found."},
		{5, 4, "No new items found."},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := &Result{Initial: tt.initial, Final: tt.final}
			assert.Equal(t, tt.want, r.Summary())
		})
	}
}

func TestParamsFromConfig(t *testing.T) {
	params := ParamsFromConfig(config.SearchParams{
		ScreenName:     "jack",
		Count:          50,
		ExcludeReplies: true,
		TweetMode:      "extended",
		Extra:          map[string]string{"a": "b"},
	})

	assert.Equal(t, twitter.TimelineParams{
		ScreenName:     "jack",
		Count:          50,
		ExcludeReplies: true,
		TweetMode:      "extended",
		Extra:          map[string]string{"a": "b"},
	}, params)
}

type runner struct {
	t      *testing.T
	cfg    *config.Config
	client *fakeTimeline
}

func newRunner(t *testing.T, order string, ids ...int) *runner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SearchParams.ScreenName = "jack"
	cfg.SearchParams.Count = 2
	cfg.Output.File = filepath.Join(t.TempDir(), "tweets.json")
	cfg.Output.Order = order
	return &runner{t: t, cfg: cfg, client: newFakeTimeline(ids...)}
}

func (r *runner) run() (*Result, string) {
	r.t.Helper()
	order, err := timeline.ParseOrder(r.cfg.Output.Order)
	require.NoError(r.t, err)
	store, err := storage.NewManager(r.cfg.Output.File, order, "", logger.NewTestLogger())
	require.NoError(r.t, err)

	var out bytes.Buffer
	s, err := New(r.cfg, r.client, store, minimal, ui.NewPrinter(&out, false))
	require.NoError(r.t, err)

	result, err := s.Run(context.Background())
	require.NoError(r.t, err)
	return result, out.String()
}

func (r *runner) file() string {
	r.t.Helper()
	data, err := os.ReadFile(r.cfg.Output.File)
	require.NoError(r.t, err)
	return string(data)
}

func TestRunIncremental(t *testing.T) {
	r := newRunner(t, "ascending", 101, 102, 103, 104, 105)

	result, out := r.run()
	assert.Equal(t, "Fetching tweets for @jack\n"+
		"No existing file found, fetching all tweets.\n"+
		"Searching: .....\n"+
		"Done. Found 5 items.\n", out)
	assert.Equal(t, 0, result.Initial)
	assert.Equal(t, 5, result.Final)
	assert.NotEmpty(t, result.RunID)

	r.client.add(106, 107)
	callsBefore := r.client.callCount()
	result, out = r.run()
	assert.Contains(t, out, "✓ Found existing file with 5 tweets.\n")
	assert.Contains(t, out, "Done. 2 new items added.\n")
	assert.Equal(t, 2, result.Added())
	assert.Equal(t, "105", r.client.calls[callsBefore].SinceID)

	r.client.add(108)
	_, out = r.run()
	assert.Contains(t, out, "Done. 1 new item added.\n")

	stored := mustLoad(t, r.cfg.Output.File).Items
	assert.Equal(t, []string{"101", "102", "103", "104", "105", "106", "107", "108"}, itemIDs(stored))
	assert.True(t, timeline.IsSorted(stored, timeline.Ascending))
}

func TestRunIsIdempotent(t *testing.T) {
	for _, order := range []string{"ascending", "descending"} {
		t.Run(order, func(t *testing.T) {
			r := newRunner(t, order, 101, 102, 103)
			tied := makeTweet(104)
			tied.CreatedAt = r.client.tweets[0].CreatedAt
			r.client.tweets = append([]twitter.Tweet{tied}, r.client.tweets...)

			r.run()
			first := r.file()

			_, out := r.run()
			second := r.file()

			assert.Equal(t, first, second)
			assert.Contains(t, out, "Done. No new items found.\n")
		})
	}
}

func TestRunDescendingOrder(t *testing.T) {
	r := newRunner(t, "descending", 101, 102, 103)
	r.run()

	r.client.add(104)
	r.run()

	snapshot := mustLoad(t, r.cfg.Output.File)
	assert.Equal(t, []string{"104", "103", "102", "101"}, itemIDs(snapshot.Items))
	assert.Equal(t, "104", snapshot.SinceID)
}

func TestRunSavesPartialResultsOnRequestError(t *testing.T) {
	r := newRunner(t, "ascending", 101, 102, 103, 104)
	r.client.failOn = 2

	result, out := r.run()

	assert.Equal(t, StopRequestError, result.Stats.StopReason)
	assert.Contains(t, out, "Request failed, keeping what was fetched")
	assert.Contains(t, out, "Done. Found 2 items.\n")
	assert.Equal(t, []string{"103", "104"}, itemIDs(mustLoad(t, r.cfg.Output.File).Items))
}

func TestRunInterruptedLeavesFileUnchanged(t *testing.T) {
	r := newRunner(t, "ascending", 101, 102)
	r.run()
	before := r.file()

	r.client.add(103, 104, 105, 106)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &cancellingTimeline{inner: r.client, after: 1, cancel: cancel}

	store, err := storage.NewManager(r.cfg.Output.File, timeline.Ascending, "", logger.NewTestLogger())
	require.NoError(t, err)
	var out bytes.Buffer
	s, err := New(r.cfg, client, store, minimal, ui.NewPrinter(&out, false))
	require.NoError(t, err)

	result, err := s.Run(ctx)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "left unchanged")
	assert.Equal(t, before, r.file())
	assert.NotContains(t, out.String(), "Done.")

	r.run()
	assert.Equal(t, []string{"101", "102", "103", "104", "105", "106"}, itemIDs(mustLoad(t, r.cfg.Output.File).Items))
}

type failingStore struct{}

func (failingStore) Load() storage.Snapshot               { return storage.Snapshot{} }
func (failingStore) Save(items timeline.Collection) error { return fmt.Errorf("disk full") }
func (failingStore) Path() string                         { return "/nowhere/tweets.json" }

func TestRunReturnsSaveError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SearchParams.ScreenName = "jack"

	s, err := New(cfg, newFakeTimeline(101), failingStore{}, minimal, nil)
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.ErrorContains(t, err, "/nowhere/tweets.json")
}

func TestNewSanitizesScreenName(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SearchParams.ScreenName = " @jack/ "

	s, err := New(cfg, newFakeTimeline(), failingStore{}, minimal, nil)
	require.NoError(t, err)
	assert.Equal(t, "jack", s.params.ScreenName)
}

func TestNewRejectsInvalidScreenName(t *testing.T) {
	for _, name := range []string{"@", "has space", "sixteen_chars_xx", "jäck"} {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.SearchParams.ScreenName = name

			_, err := New(cfg, newFakeTimeline(), failingStore{}, minimal, nil)
			assert.ErrorContains(t, err, "is not a valid handle")
		})
	}
}

func TestNewRejectsUnknownOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Order = "random"

	_, err := New(cfg, newFakeTimeline(), failingStore{}, minimal, nil)
	assert.Error(t, err)
}

func mustLoad(t *testing.T, path string) storage.Snapshot {
	t.Helper()
	manager, err := storage.NewManager(path, timeline.Descending, "", logger.NewTestLogger())
	require.NoError(t, err)
	return manager.Load()
}
