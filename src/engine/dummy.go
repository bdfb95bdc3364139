package engine

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/provider"
)

// DummyEngine is a lightweight engine implementation useful for local
// testing without API calls. It echoes scripted fragments, or the prompt
// split into words when no script is set.
type DummyEngine struct {
	Caps      provider.CapabilitySet
	Catalog   []provider.AIModel
	Fragments []string

	// CompleteErr makes Complete fail; CatalogErr makes Models fail.
	CompleteErr error
	CatalogErr  error

	// Gate, when set, is received from before each fragment is emitted so
	// tests can pace the stream.
	Gate chan struct{}

	CompleteCalls atomic.Int32
}

// NewDummyEngine returns an engine supporting every capability with a
// single test model.
func NewDummyEngine() *DummyEngine {
	return &DummyEngine{
		Caps: provider.Caps(provider.CapText, provider.CapImage, provider.CapAudio, provider.CapStreaming),
		Catalog: []provider.AIModel{{
			ID:           "dummy-model",
			Name:         "Dummy",
			Capabilities: provider.Caps(provider.CapText, provider.CapImage, provider.CapAudio, provider.CapStreaming),
		}},
	}
}

func (d *DummyEngine) Provider() provider.Provider {
	return provider.Provider{ID: "dummy", Name: "Dummy"}
}

func (d *DummyEngine) Capabilities() provider.CapabilitySet { return d.Caps }

func (d *DummyEngine) Models(ctx context.Context) ([]provider.AIModel, error) {
	if d.CatalogErr != nil {
		return nil, &ModelCatalogError{Provider: "Dummy", Err: d.CatalogErr}
	}
	return d.Catalog, nil
}

func (d *DummyEngine) PrepareRequest(block *chat.MessageBlock, conv *chat.Conversation, system *chat.Message) (any, error) {
	return History(block, conv, system), nil
}

func (d *DummyEngine) Complete(ctx context.Context, request any, stream bool) (any, error) {
	d.CompleteCalls.Add(1)
	if d.CompleteErr != nil {
		return nil, d.CompleteErr
	}
	history, _ := request.([]chat.Message)
	return d.script(history), nil
}

func (d *DummyEngine) script(history []chat.Message) []string {
	if d.Fragments != nil {
		return d.Fragments
	}
	prompt := ""
	if len(history) > 0 {
		prompt = history[len(history)-1].Content
	}
	words := strings.Fields("Dummy response: " + prompt)
	fragments := make([]string, len(words))
	for i, w := range words {
		if i > 0 {
			w = " " + w
		}
		fragments[i] = w
	}
	return fragments
}

func (d *DummyEngine) StreamResponse(ctx context.Context, raw any) <-chan Fragment {
	fragments, _ := raw.([]string)
	out := make(chan Fragment)
	go func() {
		defer close(out)
		for _, f := range fragments {
			if d.Gate != nil {
				select {
				case <-d.Gate:
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- Fragment{Text: f}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (d *DummyEngine) WholeResponse(raw any) (chat.Message, error) {
	fragments, _ := raw.([]string)
	return chat.NewMessage(chat.RoleAssistant, strings.Join(fragments, "")), nil
}

var _ Engine = (*DummyEngine)(nil)
