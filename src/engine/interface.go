package engine

import (
	"context"

	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/provider"
)

// Fragment is one incremental piece of streamed response text.
type Fragment struct {
	Text string
	Err  error
}

// Engine adapts one provider's SDK to the uniform completion contract.
// Request payloads and raw responses are provider-native and opaque to
// callers; they only flow between PrepareRequest, Complete and the two
// response methods of the same engine.
type Engine interface {
	// Provider returns the descriptor this engine was built for.
	Provider() provider.Provider

	// Capabilities returns the modalities the engine supports.
	Capabilities() provider.CapabilitySet

	// Models returns the model catalog, lazily resolved and cached for
	// the engine's lifetime. On failure it returns a *ModelCatalogError;
	// callers fall back to an empty list.
	Models(ctx context.Context) ([]provider.AIModel, error)

	// PrepareRequest builds the provider-native request payload from the
	// new block, the prior completed exchanges and the optional system
	// message. Pure: no side effects, deterministic for equal inputs.
	PrepareRequest(block *chat.MessageBlock, conv *chat.Conversation, system *chat.Message) (any, error)

	// Complete performs the network call. With stream set it returns a
	// provider-native streaming handle, otherwise the complete response
	// object. Failures are *TransientProviderError or *FatalProviderError.
	Complete(ctx context.Context, request any, stream bool) (any, error)

	// StreamResponse turns a streaming handle into a lazy, finite,
	// non-restartable fragment sequence. The channel closes when the
	// stream is exhausted or ctx is cancelled; either way the underlying
	// connection is released.
	StreamResponse(ctx context.Context, raw any) <-chan Fragment

	// WholeResponse builds the complete response message from a
	// non-streaming raw response.
	WholeResponse(raw any) (chat.Message, error)
}

// History flattens the completed exchanges plus the new request into the
// ordered message list sent to a provider. The optional system message
// comes first; blocks without a response are skipped.
func History(block *chat.MessageBlock, conv *chat.Conversation, system *chat.Message) []chat.Message {
	var out []chat.Message
	if system != nil {
		out = append(out, *system)
	}
	for _, b := range conv.Blocks() {
		if b.Response == nil || b.ID == block.ID {
			continue
		}
		out = append(out, b.Request, *b.Response)
	}
	out = append(out, block.Request)
	return out
}
