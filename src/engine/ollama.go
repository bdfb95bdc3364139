package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"github.com/parakeet-chat/parakeet/src/cache"
	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/provider"
)

// OllamaEngine talks to a local or remote Ollama server. No API key is
// involved; the account only carries the base URL.
type OllamaEngine struct {
	account provider.Account
	client  *ollama.Client
	catalog *cache.CatalogCache
}

// NewOllamaEngine builds an engine for an Ollama account.
func NewOllamaEngine(account provider.Account) (*OllamaEngine, error) {
	host := account.Provider.BaseURL
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	return &OllamaEngine{
		account: account,
		client:  ollama.NewClient(u, http.DefaultClient),
		catalog: cache.New(2, catalogTTL),
	}, nil
}

func (e *OllamaEngine) Provider() provider.Provider { return e.account.Provider }

func (e *OllamaEngine) Capabilities() provider.CapabilitySet {
	return provider.Caps(provider.CapText, provider.CapImage, provider.CapStreaming)
}

// Models lists the locally installed models, cached with a TTL.
func (e *OllamaEngine) Models(ctx context.Context) ([]provider.AIModel, error) {
	key := e.account.Provider.ID
	if models, ok := e.catalog.Get(key); ok {
		return models, nil
	}
	list, err := e.client.List(ctx)
	if err != nil {
		return nil, &ModelCatalogError{Provider: e.account.Provider.Name, Err: err}
	}
	models := make([]provider.AIModel, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, provider.AIModel{
			ID:           m.Name,
			Capabilities: e.Capabilities(),
		})
	}
	e.catalog.Set(key, models)
	return models, nil
}

// PrepareRequest maps the history onto an Ollama chat request. Generation
// parameters travel in the options map.
func (e *OllamaEngine) PrepareRequest(block *chat.MessageBlock, conv *chat.Conversation, system *chat.Message) (any, error) {
	history := History(block, conv, system)
	messages := make([]ollama.Message, 0, len(history))
	for _, m := range history {
		msg := ollama.Message{
			Role:    string(m.Role),
			Content: chat.InlineTextAttachments(m.Content, m.Attachments),
		}
		for _, a := range m.Attachments {
			if a.IsImage() {
				msg.Images = append(msg.Images, ollama.ImageData(a.Data))
			}
		}
		messages = append(messages, msg)
	}
	options := map[string]any{
		"temperature": block.Params.Temperature,
		"top_p":       block.Params.TopP,
	}
	if block.Params.MaxTokens > 0 {
		options["num_predict"] = block.Params.MaxTokens
	}
	return &ollama.ChatRequest{
		Model:    block.Params.Model,
		Messages: messages,
		Options:  options,
	}, nil
}

// ollamaStream defers the callback-driven network call until the fragment
// sequence is consumed.
type ollamaStream struct {
	client *ollama.Client
	req    *ollama.ChatRequest
}

// Complete either collects the full response or hands back a deferred
// streaming handle; Ollama's client API only exposes chunk callbacks, so
// the streamed call happens when StreamResponse consumes the handle.
func (e *OllamaEngine) Complete(ctx context.Context, request any, stream bool) (any, error) {
	req, ok := request.(*ollama.ChatRequest)
	if !ok {
		return nil, &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected request payload %T", request)}
	}
	if stream {
		streaming := true
		req.Stream = &streaming
		return &ollamaStream{client: e.client, req: req}, nil
	}

	streaming := false
	req.Stream = &streaming
	var (
		full strings.Builder
		last ollama.ChatResponse
	)
	err := e.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		full.WriteString(resp.Message.Content)
		last = resp
		return nil
	})
	if err != nil {
		return nil, e.classify(err)
	}
	last.Message.Content = full.String()
	return last, nil
}

// StreamResponse drives the chunk callback into a fragment channel.
func (e *OllamaEngine) StreamResponse(ctx context.Context, raw any) <-chan Fragment {
	out := make(chan Fragment)
	handle, ok := raw.(*ollamaStream)
	if !ok {
		go func() {
			out <- Fragment{Err: &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected stream handle %T", raw)}}
			close(out)
		}()
		return out
	}
	go func() {
		defer close(out)
		err := handle.client.Chat(ctx, handle.req, func(resp ollama.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			select {
			case out <- Fragment{Text: resp.Message.Content}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && ctx.Err() == nil {
			out <- Fragment{Err: e.classify(err)}
		}
	}()
	return out
}

// WholeResponse extracts the assistant message from a collected response.
func (e *OllamaEngine) WholeResponse(raw any) (chat.Message, error) {
	resp, ok := raw.(ollama.ChatResponse)
	if !ok {
		return chat.Message{}, &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected response %T", raw)}
	}
	return chat.NewMessage(chat.RoleAssistant, resp.Message.Content), nil
}

func (e *OllamaEngine) classify(err error) error {
	var statusErr ollama.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(e.account.Provider.Name, statusErr.StatusCode, err)
	}
	return classifyNet(e.account.Provider.Name, err)
}

var _ Engine = (*OllamaEngine)(nil)
