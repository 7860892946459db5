package conversation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore_AppendEntry_TurnIndexMonotonic(t *testing.T) {
	counter := 0
	store := New(WithIDGenerator(func() string {
		counter++
		return fmt.Sprintf("entry-%d", counter)
	}))

	e1, err := store.AppendEntry("", "thread-1", ActorUser, map[string]interface{}{"messages": []interface{}{"hi"}})
	assert.NoError(t, err)
	assert.Equal(t, 0, e1.TurnIndex)
	assert.Nil(t, e1.SessionID)

	e2, err := store.AppendEntry("", "thread-1", ActorAssistant, map[string]interface{}{"messages": []interface{}{"hello"}})
	assert.NoError(t, err)
	assert.Equal(t, 1, e2.TurnIndex)

	e3, err := store.AppendEntry("session-1", "thread-1", ActorUser, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, e3.TurnIndex)
	if assert.NotNil(t, e3.SessionID) {
		assert.Equal(t, "session-1", *e3.SessionID)
	}
}

func TestStore_AppendEntry_RequiresThreadID(t *testing.T) {
	store := New()
	_, err := store.AppendEntry("", "", ActorUser, nil)
	assert.Error(t, err)
}

func TestStore_AttachThreadToSession(t *testing.T) {
	store := New()
	_, err := store.AppendEntry("", "orphan-thread", ActorUser, nil)
	assert.NoError(t, err)
	_, err = store.AppendEntry("", "orphan-thread", ActorAssistant, nil)
	assert.NoError(t, err)

	count, err := store.AttachThreadToSession("orphan-thread", "session-9")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, e := range store.ThreadEntries("orphan-thread") {
		if assert.NotNil(t, e.SessionID) {
			assert.Equal(t, "session-9", *e.SessionID)
		}
	}
}

func TestStore_AttachThreadToSession_UnknownThread(t *testing.T) {
	store := New()
	_, err := store.AttachThreadToSession("nope", "session-9")
	assert.Error(t, err)
}

func TestStore_LatestThread(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := base
	store := New(WithClock(func() time.Time {
		t := tick
		tick = tick.Add(time.Second)
		return t
	}))

	_, err := store.AppendEntry("session-1", "thread-old", ActorUser, nil)
	assert.NoError(t, err)
	_, err = store.AppendEntry("session-1", "thread-new", ActorUser, nil)
	assert.NoError(t, err)
	_, err = store.AppendEntry("session-1", "thread-new", ActorAssistant, nil)
	assert.NoError(t, err)

	entries, err := store.LatestThread("session-1")
	assert.NoError(t, err)
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "thread-new", entries[0].ThreadID)
		assert.Equal(t, 0, entries[0].TurnIndex)
		assert.Equal(t, 1, entries[1].TurnIndex)
	}
}

func TestStore_LatestThread_NoSession(t *testing.T) {
	store := New()
	entries, err := store.LatestThread("missing-session")
	assert.NoError(t, err)
	assert.Nil(t, entries)
}

func TestStore_DeleteSessionOnly_PreservesEntries(t *testing.T) {
	store := New()
	_, err := store.AppendEntry("session-1", "thread-1", ActorUser, nil)
	assert.NoError(t, err)
	_, err = store.AppendEntry("session-1", "thread-1", ActorAssistant, nil)
	assert.NoError(t, err)

	count := store.DeleteSessionOnly("session-1")
	assert.Equal(t, 2, count)

	entries := store.ThreadEntries("thread-1")
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Nil(t, e.SessionID)
	}
}
