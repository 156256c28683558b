package permission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callhistory/internal/calllog"
)

func TestBroker_PromptLifecycle(t *testing.T) {
	b := NewBroker()
	ctx := context.Background()

	var got []string
	b.OnResult(func(id string, granted bool) {
		got = append(got, id)
		assert.True(t, granted)
	})

	ok, err := b.CheckGranted(ctx, calllog.CapabilityReadCallLog)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.RequestGrant(ctx, calllog.CapabilityReadCallLog, "req-1"))
	require.ErrorIs(t, b.RequestGrant(ctx, calllog.CapabilityReadCallLog, "req-1"), ErrDuplicatePrompt)

	pending := b.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "req-1", pending[0].RequestID)
	assert.Equal(t, calllog.CapabilityReadCallLog, pending[0].Capability)

	require.NoError(t, b.Resolve("req-1", true))
	assert.Equal(t, []string{"req-1"}, got)
	assert.Empty(t, b.Pending())

	ok, err = b.CheckGranted(ctx, calllog.CapabilityReadCallLog)
	require.NoError(t, err)
	assert.True(t, ok)

	require.ErrorIs(t, b.Resolve("req-1", true), ErrPromptNotFound)
	assert.Len(t, got, 1)
}

func TestBroker_DenialIsNotRemembered(t *testing.T) {
	b := NewBroker()
	ctx := context.Background()
	require.NoError(t, b.RequestGrant(ctx, calllog.CapabilityReadCallLog, "req-1"))
	require.NoError(t, b.Resolve("req-1", false))

	ok, err := b.CheckGranted(ctx, calllog.CapabilityReadCallLog)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBroker_PendingIsOldestFirst(t *testing.T) {
	b := NewBroker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.clock = func() time.Time { now = now.Add(time.Second); return now }

	ctx := context.Background()
	require.NoError(t, b.RequestGrant(ctx, calllog.CapabilityReadCallLog, "b"))
	require.NoError(t, b.RequestGrant(ctx, calllog.CapabilityReadCallLog, "a"))

	pending := b.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].RequestID)
	assert.Equal(t, "a", pending[1].RequestID)
}

func TestBroker_RejectsInvalidPrompts(t *testing.T) {
	b := NewBroker()
	assert.ErrorIs(t, b.RequestGrant(context.Background(), calllog.CapabilityReadCallLog, ""), ErrInvalidPrompt)
	assert.ErrorIs(t, b.RequestGrant(context.Background(), "", "x"), ErrInvalidPrompt)
}

func TestBroker_GrantAndRevoke(t *testing.T) {
	b := NewBroker()
	b.Grant(calllog.CapabilityReadCallLog)
	ok, _ := b.CheckGranted(context.Background(), calllog.CapabilityReadCallLog)
	assert.True(t, ok)

	b.Revoke(calllog.CapabilityReadCallLog)
	ok, _ = b.CheckGranted(context.Background(), calllog.CapabilityReadCallLog)
	assert.False(t, ok)
}

func TestBroker_DrivesController(t *testing.T) {
	b := NewBroker()
	store := calllog.NewMemoryStore(calllog.CallRecord{Number: "555-1234", Timestamp: 1, Duration: 45})
	c := calllog.NewController(b, store, &calllog.Pipeline{}, calllog.Options{})
	b.OnResult(c.OnPermissionResult)

	ch := c.Submit(context.Background(), calllog.Request{Method: calllog.MethodGet})
	pending := b.Pending()
	require.Len(t, pending, 1)
	id, ok := c.PendingID()
	require.True(t, ok)
	assert.Equal(t, id, pending[0].RequestID)

	require.NoError(t, b.Resolve(id, true))
	select {
	case o := <-ch:
		require.NoError(t, o.Err)
		assert.Len(t, o.Entries, 1)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out")
	}

	// The grant is remembered: no second prompt.
	entries, err := c.Do(context.Background(), calllog.Request{Method: calllog.MethodGet})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, b.Pending())
}
