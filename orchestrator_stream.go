package parakeet

import (
	"context"

	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/engine"
)

// consumeStream iterates the engine's fragment sequence, accumulating
// content on the block and delivering fragments in engine order. The
// cancellation flag is checked at every fragment boundary.
func (o *Orchestrator) consumeStream(ctx context.Context, eng engine.Engine, raw any, block *chat.MessageBlock) {
	o.setState(StateStreaming)
	o.conv.BeginResponse(block.ID)

	fragments := eng.StreamResponse(ctx, raw)
	for fragment := range fragments {
		if o.cancelled.Load() {
			o.finishCancelled(block)
			drain(fragments)
			return
		}
		if fragment.Err != nil {
			// Mid-stream failure: partial content stays on the block.
			o.fail(block, fragment.Err)
			drain(fragments)
			return
		}
		if fragment.Text == "" {
			continue
		}
		o.conv.AppendResponseText(block.ID, fragment.Text)
		o.notifyFragment(block.ID, fragment.Text)
	}

	if o.cancelled.Load() {
		o.finishCancelled(block)
		return
	}

	o.setState(StateApplying)
	final, _ := o.conv.Response(block.ID)
	o.conv.FinishBlock(block.ID, chat.FinishOK)
	o.notify(func(a Adapter) { a.OnCompleted(block.ID, final) })
}

// drain exhausts a fragment channel so the engine goroutine can exit and
// release the connection. After cancellation the context is already done
// and the engine closes within at most one fragment; after a stream error
// the engine closes on its own.
func drain(fragments <-chan engine.Fragment) {
	for range fragments {
	}
}
