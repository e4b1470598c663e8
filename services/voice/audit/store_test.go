// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the transcript audit store

package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/VoiceLedger/services/voice/datatypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func makeTurn(sid string, n int, at time.Time) datatypes.Turn {
	return datatypes.Turn{
		TurnID:    fmt.Sprintf("turn-%d", n),
		CallSid:   sid,
		Timestamp: at,
		User:      fmt.Sprintf("question %d", n),
		Assistant: fmt.Sprintf("answer %d", n),
		Outcome:   "chat",
	}
}

func TestRecordTurn_CreatesAndGrowsCallRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA123", 1, start)))
	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA123", 2, start.Add(time.Minute))))

	calls, err := store.ListCalls(ctx)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "CA123", calls[0].CallSid)
	assert.Equal(t, 2, calls[0].Turns)
	assert.Equal(t, start, calls[0].StartedAt)
	assert.Nil(t, calls[0].EndedAt)
}

func TestRecordTurn_RejectsMalformedSid(t *testing.T) {
	store := newTestStore(t)

	err := store.RecordTurn(context.Background(),
		makeTurn("CA123:injected", 1, time.Now()))
	assert.Error(t, err)
}

func TestListCalls_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	// Insert in an order where sid ordering disagrees with time ordering.
	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA-bbb", 1, base)))
	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA-aaa", 1, base.Add(time.Hour))))
	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA-ccc", 1, base.Add(2*time.Hour))))

	calls, err := store.ListCalls(ctx)
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.Equal(t, "CA-ccc", calls[0].CallSid)
	assert.Equal(t, "CA-aaa", calls[1].CallSid)
	assert.Equal(t, "CA-bbb", calls[2].CallSid)
}

func TestTranscript_ChronologicalAndIsolatedPerCall(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	// Out-of-order insertion; sub-second spacing exercises the
	// fixed-width key timestamps.
	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA123", 2, base.Add(500*time.Millisecond))))
	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA123", 1, base)))
	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA123", 3, base.Add(10*time.Second))))
	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA999", 1, base)))

	turns, err := store.Transcript(ctx, "CA123")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "question 1", turns[0].User)
	assert.Equal(t, "question 2", turns[1].User)
	assert.Equal(t, "question 3", turns[2].User)
}

func TestTranscript_UnknownCallIsEmpty(t *testing.T) {
	store := newTestStore(t)

	turns, err := store.Transcript(context.Background(), "CA404")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestTranscript_RejectsMalformedSid(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Transcript(context.Background(), "CA123:")
	assert.Error(t, err)
}

func TestEndCall_StampsRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordTurn(ctx, makeTurn("CA123", 1, time.Now().UTC())))
	require.NoError(t, store.EndCall(ctx, "CA123"))

	calls, err := store.ListCalls(ctx)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.NotNil(t, calls[0].EndedAt)
}

func TestEndCall_UnknownCallIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.EndCall(context.Background(), "CA404"))
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0

	store, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, store.RecordTurn(context.Background(),
		makeTurn("CA123", 1, time.Now().UTC())))
	require.NoError(t, store.Close())

	store, err = Open(cfg)
	require.NoError(t, err)
	defer store.Close()

	turns, err := store.Transcript(context.Background(), "CA123")
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}
