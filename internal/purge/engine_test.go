package purge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i358/discord-message-deleter/internal/discord"
	"github.com/i358/discord-message-deleter/internal/retry"
)

const (
	testChannel = "200000000000000001"
	testAuthor  = "100000000000000001"
	otherAuthor = "100000000000000009"
)

func msg(id, author string) discord.Message {
	return discord.Message{ID: id, Author: discord.Author{ID: author}}
}

func jsonResponse(t *testing.T, status int, v any) *discord.Response {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return &discord.Response{StatusCode: status, Body: body}
}

// fakeAPI serves pages keyed by the before cursor and scripted delete statuses.
type fakeAPI struct {
	t *testing.T

	mu    sync.Mutex
	pages map[string][]discord.Message
	// served before pages, in order
	listQueue []*discord.Response
	// per message, consumed in order; default 204
	deleteStatus map[string][]int
	deleteBodies map[string][]string

	listCalls   []string
	deleteCalls []string
	// "list:<before>" and "delete:<id>" in call order
	events []string

	progress func() Progress
	atFetch  []Progress
	onDelete func(id string)
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		t:            t,
		pages:        map[string][]discord.Message{},
		deleteStatus: map[string][]int{},
		deleteBodies: map[string][]string{},
	}
}

func (f *fakeAPI) ListMessages(ctx context.Context, channelID, before string, limit int) (*discord.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assert.Equal(f.t, testChannel, channelID)
	assert.Equal(f.t, 100, limit)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls = append(f.listCalls, before)
	f.events = append(f.events, "list:"+before)
	if f.progress != nil {
		f.atFetch = append(f.atFetch, f.progress())
	}

	if len(f.listQueue) > 0 {
		resp := f.listQueue[0]
		f.listQueue = f.listQueue[1:]
		return resp, nil
	}

	page := f.pages[before]
	if page == nil {
		page = []discord.Message{}
	}
	body, err := json.Marshal(page)
	require.NoError(f.t, err)
	return &discord.Response{Method: http.MethodGet, StatusCode: http.StatusOK, Body: body}, nil
}

func (f *fakeAPI) DeleteMessage(ctx context.Context, channelID, messageID string) (*discord.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assert.Equal(f.t, testChannel, channelID)

	if f.onDelete != nil {
		f.onDelete(messageID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteCalls = append(f.deleteCalls, messageID)
	f.events = append(f.events, "delete:"+messageID)

	status := http.StatusNoContent
	var body string
	if queued := f.deleteStatus[messageID]; len(queued) > 0 {
		status = queued[0]
		f.deleteStatus[messageID] = queued[1:]
		if bodies := f.deleteBodies[messageID]; len(bodies) > 0 {
			body = bodies[0]
			f.deleteBodies[messageID] = bodies[1:]
		}
	}
	return &discord.Response{Method: http.MethodDelete, StatusCode: status, Body: []byte(body)}, nil
}

// recordingSleep returns immediately and records every requested wait.
type recordingSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleep) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

type countingDecider struct {
	mu      sync.Mutex
	answers []bool
	prompts []ZeroMatchPrompt
	calls   func() int // list calls at prompt time
	atCall  []int
}

func (d *countingDecider) ContinueScanning(_ context.Context, p ZeroMatchPrompt) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompts = append(d.prompts, p)
	if d.calls != nil {
		d.atCall = append(d.atCall, d.calls())
	}
	if len(d.answers) == 0 {
		return true, nil
	}
	answer := d.answers[0]
	d.answers = d.answers[1:]
	return answer, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	progress []Progress
	summary  *Summary
}

func (o *recordingObserver) OnProgress(p Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, p)
}

func (o *recordingObserver) OnComplete(s Summary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summary = &s
}

func newTestEngine(t *testing.T, api API, sleep *recordingSleep, setters ...EngineOption) *Engine {
	t.Helper()
	setters = append([]EngineOption{WithSleep(sleep.Sleep), WithRunID("test-run")}, setters...)
	e, err := NewEngine(api, Options{ChannelID: testChannel, AuthorID: testAuthor}, nil, setters...)
	require.NoError(t, err)
	return e
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func TestEngine_DeletesAcrossPages(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000005", testAuthor),
		msg("300000000000000004", otherAuthor),
		msg("300000000000000003", testAuthor),
	}
	api.pages["300000000000000003"] = []discord.Message{
		msg("300000000000000002", testAuthor),
		msg("300000000000000001", otherAuthor),
	}

	sleep := &recordingSleep{}
	observer := &recordingObserver{}
	e := newTestEngine(t, api, sleep, WithObserver(observer))

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopExhausted, summary.StopReason)
	assert.Equal(t, 3, summary.Deleted)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 3, summary.Found)
	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, "test-run", summary.RunID)

	// two pages, then three empty pages at the exhausted cursor
	assert.Equal(t, []string{
		"",
		"300000000000000003",
		"300000000000000001",
		"300000000000000001",
		"300000000000000001",
	}, api.listCalls)
	assert.Equal(t, []string{"300000000000000005", "300000000000000003", "300000000000000002"}, api.deleteCalls)

	require.NotNil(t, observer.summary)
	assert.Equal(t, summary, *observer.summary)
	assert.Len(t, observer.progress, 2)
	assert.Equal(t, Progress{Deleted: 3, Batches: 2, Found: 3}, e.Progress())
}

func TestEngine_NoFetchWhileInProcess(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000006", testAuthor),
		msg("300000000000000005", testAuthor),
		msg("300000000000000004", testAuthor),
	}
	api.pages["300000000000000004"] = []discord.Message{
		msg("300000000000000003", testAuthor),
		msg("300000000000000002", testAuthor),
	}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)
	api.progress = e.Progress

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	for i, p := range api.atFetch {
		assert.Equal(t, 0, p.InProcess, "fetch %d started with messages in process", i)
	}

	// every delete of a batch happens before the next listing
	assert.Equal(t, []string{
		"list:",
		"delete:300000000000000006",
		"delete:300000000000000005",
		"delete:300000000000000004",
		"list:300000000000000004",
		"delete:300000000000000003",
		"delete:300000000000000002",
		"list:300000000000000002",
		"list:300000000000000002",
		"list:300000000000000002",
	}, api.events)
}

func TestEngine_CursorAdvancesOnZeroMatchPage(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000005", otherAuthor),
		msg("300000000000000004", otherAuthor),
	}
	api.pages["300000000000000004"] = []discord.Message{
		msg("300000000000000003", testAuthor),
	}

	sleep := &recordingSleep{}
	decider := &countingDecider{}
	e := newTestEngine(t, api, sleep, WithDecider(decider))

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(api.listCalls), 2)
	assert.Equal(t, "300000000000000004", api.listCalls[1])
	assert.Equal(t, 1, summary.Deleted)
	assert.Len(t, decider.prompts, 1)
}

func TestEngine_DeduplicatesOverlappingPages(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000005", testAuthor),
		msg("300000000000000004", testAuthor),
	}
	// the server returns an already forwarded message again
	api.pages["300000000000000004"] = []discord.Message{
		msg("300000000000000004", testAuthor),
		msg("300000000000000003", testAuthor),
	}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"300000000000000005", "300000000000000004", "300000000000000003"}, api.deleteCalls)
	assert.Equal(t, 3, summary.Deleted)
	assert.Equal(t, 3, summary.Found)
}

func TestEngine_RepeatedAuthorPageIsNotZeroMatch(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000005", testAuthor),
		msg("300000000000000004", testAuthor),
	}
	// only an already forwarded author message, plus someone else's
	api.pages["300000000000000004"] = []discord.Message{
		msg("300000000000000004", testAuthor),
		msg("300000000000000002", otherAuthor),
	}
	api.pages["300000000000000002"] = []discord.Message{
		msg("300000000000000001", testAuthor),
	}

	sleep := &recordingSleep{}
	decider := &countingDecider{answers: []bool{false}}
	e := newTestEngine(t, api, sleep, WithDecider(decider))

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, decider.prompts)
	assert.Equal(t, StopExhausted, summary.StopReason)
	assert.Equal(t, []string{"300000000000000005", "300000000000000004", "300000000000000001"}, api.deleteCalls)
	assert.Equal(t, 3, summary.Deleted)
}

func TestEngine_RateLimitedDeleteHonoursRetryAfter(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{msg("300000000000000005", testAuthor)}
	api.deleteStatus["300000000000000005"] = []int{http.StatusTooManyRequests, http.StatusNoContent}
	api.deleteBodies["300000000000000005"] = []string{`{"message":"You are being rate limited.","retry_after":2.5,"global":false}`}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"300000000000000005", "300000000000000005"}, api.deleteCalls)
	assert.Equal(t, 1, summary.Deleted)
	assert.Equal(t, 0, summary.Failed)
	assert.Contains(t, sleep.Waits(), 2500*time.Millisecond)
}

func TestEngine_RateLimitUsesLocalBackoffWhenLarger(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{msg("300000000000000005", testAuthor)}
	api.deleteStatus["300000000000000005"] = []int{
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusNoContent,
	}
	api.deleteBodies["300000000000000005"] = []string{
		`{"retry_after":0.2}`,
		`{"retry_after":0.2}`,
	}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	waits := sleep.Waits()
	assert.Contains(t, waits, 1*time.Second)
	assert.Contains(t, waits, 2*time.Second)
	assert.NotContains(t, waits, 200*time.Millisecond)
}

func TestEngine_ServerErrorsBackOffExponentially(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{msg("300000000000000005", testAuthor)}
	api.deleteStatus["300000000000000005"] = []int{
		http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusNoContent,
	}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Deleted)
	assert.Len(t, api.deleteCalls, 4)

	waits := sleep.Waits()
	require.GreaterOrEqual(t, len(waits), 3)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, waits[:3])
}

func TestEngine_NotFoundIsSkipped(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{msg("300000000000000005", testAuthor)}
	api.deleteStatus["300000000000000005"] = []int{http.StatusNotFound}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Deleted)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Len(t, api.deleteCalls, 1)
	assert.Equal(t, 0, e.Progress().InProcess)
}

func TestEngine_ForbiddenIsFailedWithoutRetry(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000005", testAuthor),
		msg("300000000000000004", testAuthor),
	}
	api.deleteStatus["300000000000000005"] = []int{http.StatusForbidden}
	api.deleteBodies["300000000000000005"] = []string{`{"message":"Missing Permissions","code":50013}`}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"300000000000000005", "300000000000000004"}, api.deleteCalls)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Deleted)
}

func TestEngine_DeleteRetryCeiling(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{msg("300000000000000005", testAuthor)}
	api.deleteStatus["300000000000000005"] = []int{
		http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError,
	}

	sleep := &recordingSleep{}
	e, err := NewEngine(api, Options{
		ChannelID: testChannel,
		AuthorID:  testAuthor,
		Retry:     retry.Config{MaxRetries: 2},
	}, nil, WithSleep(sleep.Sleep))
	require.NoError(t, err)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, api.deleteCalls, 3)
	assert.Equal(t, 1, summary.Failed)
}

func TestEngine_TransportErrorOnDeleteIsFailed(t *testing.T) {
	api := &erroringDeleteAPI{fakeAPI: newFakeAPI(t)}
	api.pages[""] = []discord.Message{msg("300000000000000005", testAuthor)}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Deleted)
}

type erroringDeleteAPI struct {
	*fakeAPI
}

func (a *erroringDeleteAPI) DeleteMessage(context.Context, string, string) (*discord.Response, error) {
	return nil, fmt.Errorf("connection reset by peer")
}

func TestEngine_PromptsOnceBeforeNextFetchWhenAuthorAbsent(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000005", otherAuthor),
		msg("300000000000000004", otherAuthor),
	}

	sleep := &recordingSleep{}
	decider := &countingDecider{answers: []bool{false}, calls: api.listCount}
	e := newTestEngine(t, api, sleep, WithDecider(decider))

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopAborted, summary.StopReason)
	require.Len(t, decider.prompts, 1)
	assert.True(t, decider.prompts[0].First)
	assert.Equal(t, 1, decider.prompts[0].ConsecutiveBatches)
	assert.Equal(t, "300000000000000004", decider.prompts[0].Cursor)
	assert.Equal(t, []int{1}, decider.atCall, "prompt must come before the next fetch")
	assert.Len(t, api.listCalls, 1)
	assert.Empty(t, api.deleteCalls)
}

func TestEngine_PromptsAgainAfterConsecutiveZeroMatchBatches(t *testing.T) {
	api := newFakeAPI(t)
	before := ""
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("3000000000000000%02d", 50-i)
		api.pages[before] = []discord.Message{msg(id, otherAuthor)}
		before = id
	}

	sleep := &recordingSleep{}
	decider := &countingDecider{}
	e := newTestEngine(t, api, sleep, WithDecider(decider))

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopExhausted, summary.StopReason)
	require.Len(t, decider.prompts, 2)
	assert.True(t, decider.prompts[0].First)
	assert.False(t, decider.prompts[1].First)
	assert.Equal(t, 10, decider.prompts[1].ConsecutiveBatches)
	assert.Equal(t, 11, decider.prompts[1].TotalBatches)
}

func TestEngine_WithoutDeciderKeepsScanning(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{msg("300000000000000005", otherAuthor)}
	api.pages["300000000000000005"] = []discord.Message{msg("300000000000000004", testAuthor)}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Deleted)
	assert.Equal(t, StopExhausted, summary.StopReason)
}

func TestEngine_ListingRetriesThenSucceeds(t *testing.T) {
	api := newFakeAPI(t)
	api.listQueue = []*discord.Response{
		{StatusCode: http.StatusBadGateway, Body: []byte("bad gateway")},
		jsonResponse(t, http.StatusTooManyRequests, map[string]any{"retry_after": 3.0}),
	}
	api.pages[""] = []discord.Message{msg("300000000000000005", testAuthor)}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Deleted)
	waits := sleep.Waits()
	require.GreaterOrEqual(t, len(waits), 2)
	assert.Equal(t, []time.Duration{1 * time.Second, 3 * time.Second}, waits[:2])
	assert.Equal(t, []string{"", "", ""}, api.listCalls[:3])
}

func TestEngine_MalformedListingIsFatal(t *testing.T) {
	api := newFakeAPI(t)
	api.listQueue = []*discord.Response{
		{StatusCode: http.StatusOK, Body: []byte(`{"not":"an array"`)},
	}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, StopFailed, summary.StopReason)
	assert.NotEmpty(t, summary.Error)
	assert.Len(t, api.listCalls, 1)
	assert.Empty(t, api.deleteCalls)
}

func TestEngine_UnauthorizedListingIsFatal(t *testing.T) {
	api := newFakeAPI(t)
	api.listQueue = []*discord.Response{
		{Method: http.MethodGet, Path: "/channels/x/messages", StatusCode: http.StatusUnauthorized, Body: []byte(`{"message":"401: Unauthorized"}`)},
	}

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StopFailed, summary.StopReason)

	httpErr, ok := errors.AsType[*discord.HTTPError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
}

func TestEngine_CancelledContext(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{msg("300000000000000005", testAuthor)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCancelled, summary.StopReason)
	assert.Empty(t, api.deleteCalls)
}

func TestEngine_CancelDuringDeletionAbandonsRest(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000005", testAuthor),
		msg("300000000000000004", testAuthor),
		msg("300000000000000003", testAuthor),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api.onDelete = func(string) { cancel() }

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCancelled, summary.StopReason)
	assert.Equal(t, 1, summary.Deleted)
	assert.Len(t, api.deleteCalls, 1)
	assert.Equal(t, 0, e.Progress().InProcess)
}

func TestEngine_DeleterPanicStopsLister(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000005", testAuthor),
		msg("300000000000000004", testAuthor),
	}
	api.onDelete = func(string) { panic("boom") }

	sleep := &recordingSleep{}
	e := newTestEngine(t, api, sleep)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopDeleterGone, summary.StopReason)
	assert.Len(t, api.listCalls, 1)
}

func TestEngine_DeleteDelayBetweenDeletions(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = []discord.Message{
		msg("300000000000000005", testAuthor),
		msg("300000000000000004", testAuthor),
	}

	sleep := &recordingSleep{}
	e, err := NewEngine(api, Options{
		ChannelID:      testChannel,
		AuthorID:       testAuthor,
		DeleteDelay:    250 * time.Millisecond,
		EmptyPageDelay: -1,
	}, nil, WithSleep(sleep.Sleep))
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.NoError(t, err)

	delays := 0
	for _, w := range sleep.Waits() {
		if w == 250*time.Millisecond {
			delays++
		}
	}
	assert.Equal(t, 2, delays)
}

func TestNewEngine_Validation(t *testing.T) {
	api := newFakeAPI(t)

	_, err := NewEngine(nil, Options{ChannelID: testChannel, AuthorID: testAuthor}, nil)
	assert.Error(t, err)

	_, err = NewEngine(api, Options{ChannelID: "general", AuthorID: testAuthor}, nil)
	assert.ErrorContains(t, err, "channel_id")

	_, err = NewEngine(api, Options{ChannelID: testChannel}, nil)
	assert.ErrorContains(t, err, "author_id")
}

func TestNewEngine_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
		want  time.Duration
	}{
		{name: "below minimum", delay: 10 * time.Millisecond, want: 50 * time.Millisecond},
		{name: "within range", delay: 900 * time.Millisecond, want: 900 * time.Millisecond},
		{name: "above maximum", delay: 10 * time.Second, want: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(newFakeAPI(t), Options{ChannelID: testChannel, AuthorID: testAuthor, DeleteDelay: tt.delay}, nil)
			require.NoError(t, err)

			opts := e.Options()
			assert.Equal(t, tt.want, opts.DeleteDelay)
			assert.Equal(t, 100, opts.PageSize)
			assert.Equal(t, 100, opts.HandoffCapacity)
			assert.Equal(t, 3, opts.EmptyPageLimit)
			assert.Equal(t, 2*time.Second, opts.EmptyPageDelay)
			assert.Equal(t, 10, opts.ZeroMatchPromptEvery)
			assert.NotEmpty(t, e.RunID())
		})
	}
}
