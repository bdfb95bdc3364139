package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/parakeet-chat/parakeet/src/cache"
	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/provider"
)

const catalogTTL = 5 * time.Minute

// OpenAIEngine speaks the OpenAI chat completion protocol. It also serves
// OpenAI-compatible hosted providers (MistralAI, OpenRouter) which differ
// only by base URL, capability set and model catalog.
type OpenAIEngine struct {
	account provider.Account
	client  *openai.Client
	caps    provider.CapabilitySet

	// static is the curated catalog for providers that ship one; when nil
	// the catalog is fetched remotely and cached.
	static  []provider.AIModel
	catalog *cache.CatalogCache
}

// NewOpenAIEngine builds an engine for any OpenAI-compatible account.
func NewOpenAIEngine(account provider.Account) *OpenAIEngine {
	cfg := openai.DefaultConfig(account.APIKey)
	if account.Provider.BaseURL != "" {
		cfg.BaseURL = account.Provider.BaseURL
	}
	if account.Organization != "" {
		cfg.OrgID = account.Organization
	}
	e := &OpenAIEngine{
		account: account,
		client:  openai.NewClientWithConfig(cfg),
		caps:    provider.Caps(provider.CapText, provider.CapImage, provider.CapStreaming),
		catalog: cache.New(4, catalogTTL),
	}
	switch account.Provider.ID {
	case "openai":
		e.caps = provider.Caps(provider.CapText, provider.CapImage, provider.CapAudio, provider.CapStreaming)
	case "mistralai":
		e.caps = provider.Caps(provider.CapText, provider.CapStreaming)
		e.static = mistralModels()
	}
	return e
}

func (e *OpenAIEngine) Provider() provider.Provider          { return e.account.Provider }
func (e *OpenAIEngine) Capabilities() provider.CapabilitySet { return e.caps }

// Models returns the curated catalog when one ships, otherwise the remote
// list cached with a TTL.
func (e *OpenAIEngine) Models(ctx context.Context) ([]provider.AIModel, error) {
	if e.static != nil {
		return e.static, nil
	}
	key := e.account.Provider.ID
	if models, ok := e.catalog.Get(key); ok {
		return models, nil
	}
	list, err := e.client.ListModels(ctx)
	if err != nil {
		return nil, &ModelCatalogError{Provider: e.account.Provider.Name, Err: err}
	}
	models := make([]provider.AIModel, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, provider.AIModel{
			ID:           m.ID,
			Capabilities: e.caps,
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	e.catalog.Set(key, models)
	return models, nil
}

// PrepareRequest flattens the history into chat completion messages,
// inlining text attachments and encoding image attachments as data URLs.
func (e *OpenAIEngine) PrepareRequest(block *chat.MessageBlock, conv *chat.Conversation, system *chat.Message) (any, error) {
	history := History(block, conv, system)
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, toOpenAIMessage(m))
	}
	req := openai.ChatCompletionRequest{
		Model:       block.Params.Model,
		Messages:    messages,
		Temperature: float32(block.Params.Temperature),
		TopP:        float32(block.Params.TopP),
		MaxTokens:   block.Params.MaxTokens,
	}
	return req, nil
}

func toOpenAIMessage(m chat.Message) openai.ChatCompletionMessage {
	content := chat.InlineTextAttachments(m.Content, m.Attachments)
	var media []chat.Attachment
	for _, a := range m.Attachments {
		if a.IsImage() || a.IsAudio() {
			media = append(media, a)
		}
	}
	if len(media) == 0 {
		return openai.ChatCompletionMessage{Role: string(m.Role), Content: content}
	}

	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: content,
	}}
	for _, a := range media {
		dataURL := fmt.Sprintf("data:%s;base64,%s", a.ResolvedMIME(), base64.StdEncoding.EncodeToString(a.Data))
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	return openai.ChatCompletionMessage{Role: string(m.Role), MultiContent: parts}
}

// Complete performs the network call, returning either a streaming handle
// or the complete response object.
func (e *OpenAIEngine) Complete(ctx context.Context, request any, stream bool) (any, error) {
	req, ok := request.(openai.ChatCompletionRequest)
	if !ok {
		return nil, &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected request payload %T", request)}
	}
	if stream {
		req.Stream = true
		handle, err := e.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return nil, e.classify(err)
		}
		return handle, nil
	}
	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, e.classify(err)
	}
	return resp, nil
}

// StreamResponse drains the SSE stream into a fragment channel. The
// stream handle is closed on exhaustion and on cancellation.
func (e *OpenAIEngine) StreamResponse(ctx context.Context, raw any) <-chan Fragment {
	out := make(chan Fragment)
	handle, ok := raw.(*openai.ChatCompletionStream)
	if !ok {
		go func() {
			out <- Fragment{Err: &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected stream handle %T", raw)}}
			close(out)
		}()
		return out
	}
	go func() {
		defer close(out)
		defer handle.Close()
		for {
			resp, err := handle.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				out <- Fragment{Err: e.classify(err)}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- Fragment{Text: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// WholeResponse extracts the assistant message from a complete response.
func (e *OpenAIEngine) WholeResponse(raw any) (chat.Message, error) {
	resp, ok := raw.(openai.ChatCompletionResponse)
	if !ok {
		return chat.Message{}, &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected response %T", raw)}
	}
	if len(resp.Choices) == 0 {
		return chat.Message{}, &FatalProviderError{Provider: e.account.Provider.Name, Err: errors.New("empty response")}
	}
	return chat.NewMessage(chat.RoleAssistant, resp.Choices[0].Message.Content), nil
}

func (e *OpenAIEngine) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(e.account.Provider.Name, apiErr.HTTPStatusCode, err)
	}
	return classifyNet(e.account.Provider.Name, err)
}

var _ Engine = (*OpenAIEngine)(nil)
