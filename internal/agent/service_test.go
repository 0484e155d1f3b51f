package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesmcarthur-3999/taskerino/internal/config"
	"github.com/jamesmcarthur-3999/taskerino/internal/engine"
	"github.com/jamesmcarthur-3999/taskerino/internal/index"
	"github.com/jamesmcarthur-3999/taskerino/internal/llm"
	"github.com/jamesmcarthur-3999/taskerino/pkg/types"
)

// fakeChatClient records every request and replies with canned output.
type fakeChatClient struct {
	calls    int
	requests []llm.ChatRequest

	respText string
	stop     string
	err      error
}

func (f *fakeChatClient) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	stop := f.stop
	if stop == "" {
		stop = llm.StopReasonEndTurn
	}
	return &llm.ChatResponse{Text: f.respText, StopReason: stop}, nil
}

func (f *fakeChatClient) Model() string { return "fake-model" }

// gateClient blocks every call until released, signalling arrivals so
// tests can observe which calls are in flight at the model.
type gateClient struct {
	arrived  chan struct{}
	proceed  chan struct{}
	respText string
}

func (g *gateClient) Chat(_ context.Context, _ llm.ChatRequest) (*llm.ChatResponse, error) {
	g.arrived <- struct{}{}
	<-g.proceed
	return &llm.ChatResponse{Text: g.respText, StopReason: llm.StopReasonEndTurn}, nil
}

func (g *gateClient) Model() string { return "fake-model" }

func testCollections() types.Collections {
	base := time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC)
	return types.Collections{
		Notes: []*types.Note{
			{ID: "note:kickoff", Summary: "Kickoff meeting with Acme Corp", Content: "Discussed the rollout timeline.", Tags: []string{"meetings"}, Timestamp: base},
			{ID: "note:retro", Summary: "Sprint retro", Content: "What went well, what did not.", Timestamp: base.AddDate(0, 0, 1)},
		},
		Tasks: []*types.Task{
			{ID: "task:followup", Title: "Follow up with Acme Corp", Status: types.StatusTodo, Priority: types.PriorityHigh, CreatedAt: base},
			{ID: "task:invoice", Title: "Send invoice", Status: types.StatusDone, Priority: types.PriorityMedium, CreatedAt: base.AddDate(0, 0, 2)},
		},
		Organizations: []*types.Organization{
			{ID: "org:acme-corp", Name: "Acme Corp"},
		},
	}
}

func testService(t *testing.T, threshold int) (*Service, *fakeChatClient) {
	t.Helper()

	idx, err := index.NewMemoryIndex(nil)
	require.NoError(t, err)
	search := engine.NewGraphSearch()
	require.NoError(t, search.Init(context.Background(), idx))

	cfg := config.LoadConfig()
	cfg.Agent.GraphOnlyThreshold = threshold

	svc := NewService(cfg, search, nil)
	client := &fakeChatClient{}
	svc.SetClient(client)
	return svc, client
}

func TestSearchWithoutCredential(t *testing.T) {
	svc, _ := testService(t, 10)
	svc.SetClient(nil)

	_, err := svc.Search(context.Background(), "notes this week", testCollections(), "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSearchGraphOnlySkipsChat(t *testing.T) {
	svc, client := testService(t, 10)
	cols := testCollections()

	result, err := svc.Search(context.Background(), "recent meetings", cols, "")
	require.NoError(t, err)

	assert.Equal(t, 0, client.calls, "small candidate sets must not reach the model")
	assert.Equal(t, GraphOnlyThreadID, result.ThreadID)
	assert.NotEmpty(t, result.Summary)
	assert.NotEmpty(t, result.Suggestions)
	assert.Len(t, result.Notes, 2)
}

func TestSearchResolvesSelectionByIdentity(t *testing.T) {
	svc, client := testService(t, 0)
	client.respText = "```json\n{\"note_ids\": [\"note:kickoff\"], \"task_ids\": [\"task:followup\", \"task:ghost\"], \"summary\": \"Acme Corp work\", \"suggestions\": [\"Check the invoice\"]}\n```"
	cols := testCollections()

	result, err := svc.Search(context.Background(), "everything about the rollout", cols, "")
	require.NoError(t, err)
	require.Equal(t, 1, client.calls)

	require.Len(t, result.Notes, 1)
	assert.Same(t, cols.Notes[0], result.Notes[0], "ids must resolve to the caller's records")
	require.Len(t, result.Tasks, 1, "unknown ids are dropped")
	assert.Same(t, cols.Tasks[0], result.Tasks[0])
	assert.Equal(t, "Acme Corp work", result.Summary)
	assert.Equal(t, []string{"Check the invoice"}, result.Suggestions)
	assert.NotEmpty(t, result.ThreadID)
	assert.NotEqual(t, GraphOnlyThreadID, result.ThreadID)
}

func TestSearchCacheMarkersFirstTurnOnly(t *testing.T) {
	svc, client := testService(t, 0)
	client.respText = `{"note_ids": [], "task_ids": []}`
	cols := testCollections()

	first, err := svc.Search(context.Background(), "rollout status", cols, "")
	require.NoError(t, err)

	req := client.requests[0]
	require.Len(t, req.Messages, 1)
	blocks := req.Messages[0].Content
	require.Len(t, blocks, 3)
	assert.NotNil(t, blocks[0].CacheControl, "instructions block must be cache-marked")
	assert.NotNil(t, blocks[1].CacheControl, "context block must be cache-marked")
	assert.Nil(t, blocks[2].CacheControl, "query text is never cached")

	_, err = svc.Search(context.Background(), "and the invoice?", cols, first.ThreadID)
	require.NoError(t, err)

	req = client.requests[1]
	require.Len(t, req.Messages, 3, "history plus the new turn")
	last := req.Messages[2].Content
	require.Len(t, last, 1)
	assert.Nil(t, last[0].CacheControl, "follow-up turns rely on the cached prefix")
}

func TestSearchCacheRemarkAfterTTL(t *testing.T) {
	svc, client := testService(t, 0)
	client.respText = `{"note_ids": [], "task_ids": []}`
	cols := testCollections()

	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	first, err := svc.Search(context.Background(), "rollout status", cols, "")
	require.NoError(t, err)

	now = now.Add(6 * time.Minute) // past the 5m default TTL
	_, err = svc.Search(context.Background(), "anything new?", cols, first.ThreadID)
	require.NoError(t, err)

	last := client.requests[1].Messages[2].Content
	require.Len(t, last, 2, "expired cache gets a fresh context block")
	assert.NotNil(t, last[0].CacheControl)
	assert.Nil(t, last[1].CacheControl)
}

func TestSearchTruncatedResponse(t *testing.T) {
	svc, client := testService(t, 0)
	client.respText = `{"note_ids": ["note:`
	client.stop = llm.StopReasonMaxTokens

	_, err := svc.Search(context.Background(), "rollout status", testCollections(), "")
	assert.ErrorIs(t, err, llm.ErrResponseTruncated)
}

func TestSearchChatErrorPropagates(t *testing.T) {
	svc, client := testService(t, 0)
	client.err = errors.New("upstream unavailable")

	_, err := svc.Search(context.Background(), "rollout status", testCollections(), "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "upstream unavailable")
}

func TestSearchKeywordFallbackOnParseFailure(t *testing.T) {
	svc, client := testService(t, 0)
	client.respText = "I could not find anything relevant, sorry."

	result, err := svc.Search(context.Background(), "invoice", testCollections(), "")
	require.NoError(t, err)

	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "task:invoice", result.Tasks[0].ID)
	assert.Contains(t, result.Summary, "incomplete")
}

func TestSearchKeywordFallbackCapped(t *testing.T) {
	svc, client := testService(t, 0)
	svc.cfg.Agent.FallbackLimit = 3
	client.respText = "not json"

	cols := types.Collections{}
	for i := 0; i < 20; i++ {
		cols.Notes = append(cols.Notes, &types.Note{
			ID:      fmt.Sprintf("note:n%d", i),
			Summary: "quarterly planning",
		})
	}

	result, err := svc.Search(context.Background(), "planning", cols, "")
	require.NoError(t, err)
	assert.Len(t, result.Notes, 3)
}

func TestSearchDegradesWhenGraphUnavailable(t *testing.T) {
	cfg := config.LoadConfig()
	cfg.Agent.GraphOnlyThreshold = 10

	// Never initialized, so graph search always errors.
	svc := NewService(cfg, engine.NewGraphSearch(), nil)
	client := &fakeChatClient{}
	svc.SetClient(client)

	cols := testCollections()
	result, err := svc.Search(context.Background(), "recent meetings", cols, "")
	require.NoError(t, err)

	assert.Equal(t, 0, client.calls)
	assert.Len(t, result.Notes, 2)
	assert.Len(t, result.Tasks, 2)
}

func TestSearchAppendsThreadHistory(t *testing.T) {
	svc, client := testService(t, 0)
	client.respText = `{"note_ids": [], "task_ids": []}`

	result, err := svc.Search(context.Background(), "rollout status", testCollections(), "")
	require.NoError(t, err)

	thread, ok := svc.threads.Get(result.ThreadID)
	require.True(t, ok)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, llm.RoleUser, thread.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, thread.Messages[1].Role)
}

func TestSearchContextCoversAllGraphCandidates(t *testing.T) {
	svc, client := testService(t, 0)
	client.respText = `{"note_ids": [], "task_ids": []}`
	cols := testCollections()

	// The status filter narrows tasks to one, but the model must still
	// see every graph-filtered candidate.
	_, err := svc.Search(context.Background(), "todo tasks", cols, "")
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	blocks := client.requests[0].Messages[0].Content
	require.Len(t, blocks, 3)
	ctxBlock := blocks[1].Text
	assert.Contains(t, ctxBlock, "task:followup")
	assert.Contains(t, ctxBlock, "task:invoice", "filtered-out candidates stay visible to the model")
	assert.Contains(t, ctxBlock, "note:kickoff")
	assert.Contains(t, ctxBlock, "note:retro")
}

func TestSearchSerializesSameThread(t *testing.T) {
	svc, _ := testService(t, 0)
	client := &gateClient{
		arrived:  make(chan struct{}, 2),
		proceed:  make(chan struct{}),
		respText: `{"note_ids": [], "task_ids": []}`,
	}
	svc.SetClient(client)

	cols := testCollections()
	threadID := svc.CreateThread()

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Search(context.Background(), "rollout status", cols, threadID)
			done <- err
		}()
	}

	// First turn reaches the model.
	select {
	case <-client.arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first call")
	}

	// The second call is holding for the thread, so it must not reach
	// the model while the first turn is still in flight.
	select {
	case <-client.arrived:
		t.Fatal("second call reached the model while the first held the thread")
	case <-time.After(100 * time.Millisecond):
	}

	close(client.proceed)
	for i := 0; i < 2; i++ {
		require.NoError(t, <-done)
	}

	thread, ok := svc.threads.Get(threadID)
	require.True(t, ok)
	require.Len(t, thread.Messages, 4, "no interleaved or lost turns")
	assert.Equal(t, llm.RoleUser, thread.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, thread.Messages[1].Role)
	assert.Equal(t, llm.RoleUser, thread.Messages[2].Role)
	assert.Equal(t, llm.RoleAssistant, thread.Messages[3].Role)
}

func TestSearchIndependentThreadsRunConcurrently(t *testing.T) {
	svc, _ := testService(t, 0)
	client := &gateClient{
		arrived:  make(chan struct{}, 2),
		proceed:  make(chan struct{}),
		respText: `{"note_ids": [], "task_ids": []}`,
	}
	svc.SetClient(client)

	cols := testCollections()
	threadA := svc.CreateThread()
	threadB := svc.CreateThread()

	done := make(chan error, 2)
	for _, id := range []string{threadA, threadB} {
		go func(threadID string) {
			_, err := svc.Search(context.Background(), "rollout status", cols, threadID)
			done <- err
		}(id)
	}

	// Both calls must be in flight at the model simultaneously; if
	// independent threads blocked each other, the second arrival would
	// never come while the first is gated.
	for i := 0; i < 2; i++ {
		select {
		case <-client.arrived:
		case <-time.After(2 * time.Second):
			t.Fatal("calls on independent threads blocked each other")
		}
	}

	close(client.proceed)
	for i := 0; i < 2; i++ {
		require.NoError(t, <-done)
	}
}

func TestCreateAndClearThread(t *testing.T) {
	svc, _ := testService(t, 10)

	id := svc.CreateThread()
	_, ok := svc.threads.Get(id)
	assert.True(t, ok)

	svc.ClearThread(id)
	_, ok = svc.threads.Get(id)
	assert.False(t, ok)
}
