package modelcallctx

import (
	"context"

	"github.com/viant/agentrt/genai/conversation"
)

// RecorderObserver persists a completed model call into a conversation.Store
// as a ChatEntry. Persistence runs in a goroutine so the agent loop does not
// block the stream on storage latency; OnCallEnd signals the context's
// finish barrier (see WithFinishBarrier/WaitFinish) once the append
// completes, so a caller that needs the committed entry can wait for it with
// a bounded timeout instead of polling.
type RecorderObserver struct {
	Store *conversation.Store
}

// NewRecorderObserver returns an Observer that appends every call it sees to
// store, under the thread ID carried on ctx by conversation.WithID. The same
// ID doubles as the session ID: this runtime does not yet distinguish a
// session from its single active thread.
func NewRecorderObserver(store *conversation.Store) *RecorderObserver {
	return &RecorderObserver{Store: store}
}

func (r *RecorderObserver) OnCallStart(ctx context.Context, info Info) (context.Context, error) {
	infof("model call start: provider=%s model=%s", info.Provider, info.Model)
	return ctx, nil
}

func (r *RecorderObserver) OnCallEnd(ctx context.Context, info Info) error {
	threadID := conversation.ID(ctx)
	go func() {
		defer signalFinish(ctx)
		if r.Store == nil || threadID == "" {
			return
		}
		chat := map[string]interface{}{
			"provider":     info.Provider,
			"model":        info.Model,
			"text":         info.StreamText,
			"finishReason": info.FinishReason,
		}
		if info.Usage != nil {
			chat["usage"] = info.Usage
		}
		if info.Err != "" {
			chat["error"] = info.Err
			errorf("model call failed: provider=%s model=%s err=%s", info.Provider, info.Model, info.Err)
		} else {
			infof("model call finished: provider=%s model=%s", info.Provider, info.Model)
		}
		if _, err := r.Store.AppendEntry(threadID, threadID, conversation.ActorAssistant, chat); err != nil {
			warnf("model call recorder: append entry: %v", err)
		}
	}()
	return nil
}

func (r *RecorderObserver) OnStreamDelta(_ context.Context, _ []byte) error {
	return nil
}
