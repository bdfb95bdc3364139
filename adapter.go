package parakeet

import (
	"github.com/google/uuid"

	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/engine"
)

// Adapter receives completion lifecycle events for rendering. The
// orchestrator marshals every invocation onto the interactive thread via
// the configured CallAfter; implementations perform no thread hops of
// their own and must not block.
type Adapter interface {
	// OnFragment delivers one streamed fragment, in engine order.
	OnFragment(blockID uuid.UUID, text string)
	// OnCompleted reports a normally finished completion.
	OnCompleted(blockID uuid.UUID, final chat.Message)
	// OnCancelled reports a cancelled completion with the partial content
	// received so far.
	OnCancelled(blockID uuid.UUID, partial chat.Message)
	// OnError reports a failed completion as a structured (kind, message)
	// pair.
	OnError(blockID uuid.UUID, kind engine.Kind, message string)
}

// notify marshals an adapter invocation onto the interactive thread,
// dropping it when the owning view context is gone.
func (o *Orchestrator) notify(fn func(Adapter)) {
	cb := func() {
		if o.alive != nil && !o.alive() {
			return
		}
		fn(o.adapter)
	}
	if o.callAfter != nil {
		o.callAfter(cb)
		return
	}
	cb()
}

// notifyFragment is notify with a late cancellation check: a fragment
// queued behind a cancellation or failure is dropped, never delivered.
func (o *Orchestrator) notifyFragment(blockID uuid.UUID, text string) {
	cb := func() {
		if o.alive != nil && !o.alive() {
			return
		}
		if o.cancelled.Load() || o.failed.Load() {
			return
		}
		o.adapter.OnFragment(blockID, text)
	}
	if o.callAfter != nil {
		o.callAfter(cb)
		return
	}
	cb()
}
