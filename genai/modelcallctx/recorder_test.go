package modelcallctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/agentrt/genai/conversation"
)

func TestRecorderObserver_OnCallEndAppendsEntryAndSignalsFinish(t *testing.T) {
	store := conversation.New()
	rec := NewRecorderObserver(store)

	ctx := conversation.WithID(context.Background(), "thread-1")
	ctx, _ = WithFinishBarrier(ctx)

	require.NoError(t, rec.OnCallEnd(ctx, Info{Provider: "openai", Model: "gpt-5", StreamText: "hello"}))
	WaitFinish(ctx, time.Second)

	entries := store.ThreadEntries("thread-1")
	require.Len(t, entries, 1)
	assert.Equal(t, conversation.ActorAssistant, entries[0].Actor)
	assert.Equal(t, "hello", entries[0].CombinedChat["text"])
}

func TestRecorderObserver_OnCallEndWithoutThreadIDSkipsAppend(t *testing.T) {
	store := conversation.New()
	rec := NewRecorderObserver(store)

	ctx, _ := WithFinishBarrier(context.Background())
	require.NoError(t, rec.OnCallEnd(ctx, Info{Provider: "openai", Model: "gpt-5"}))
	WaitFinish(ctx, time.Second)

	assert.Empty(t, store.ThreadEntries(""))
}
