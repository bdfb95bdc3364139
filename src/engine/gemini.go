package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/parakeet-chat/parakeet/src/cache"
	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/provider"
)

// GeminiEngine speaks the Google Generative AI API.
type GeminiEngine struct {
	account provider.Account
	client  *genai.Client
	catalog *cache.CatalogCache
}

// NewGeminiEngine builds an engine for a Gemini account.
func NewGeminiEngine(ctx context.Context, account provider.Account) (*GeminiEngine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(account.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiEngine{
		account: account,
		client:  client,
		catalog: cache.New(2, catalogTTL),
	}, nil
}

func (e *GeminiEngine) Provider() provider.Provider { return e.account.Provider }

func (e *GeminiEngine) Capabilities() provider.CapabilitySet {
	return provider.Caps(provider.CapText, provider.CapImage, provider.CapAudio, provider.CapStreaming)
}

// Models lists the remote catalog, cached with a TTL.
func (e *GeminiEngine) Models(ctx context.Context) ([]provider.AIModel, error) {
	key := e.account.Provider.ID
	if models, ok := e.catalog.Get(key); ok {
		return models, nil
	}
	var models []provider.AIModel
	it := e.client.ListModels(ctx)
	for {
		info, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, &ModelCatalogError{Provider: e.account.Provider.Name, Err: err}
		}
		models = append(models, provider.AIModel{
			ID:              strings.TrimPrefix(info.Name, "models/"),
			Name:            info.DisplayName,
			Description:     info.Description,
			ContextWindow:   int(info.InputTokenLimit),
			MaxOutputTokens: int(info.OutputTokenLimit),
			Capabilities:    e.Capabilities(),
		})
	}
	e.catalog.Set(key, models)
	return models, nil
}

// geminiRequest carries everything Complete needs to open a chat session.
type geminiRequest struct {
	model   string
	params  chat.BlockParams
	system  *genai.Content
	history []*genai.Content
	parts   []genai.Part
}

// PrepareRequest splits the history into prior chat turns plus the new
// message's parts. Gemini takes the system message as a model-level
// instruction.
func (e *GeminiEngine) PrepareRequest(block *chat.MessageBlock, conv *chat.Conversation, system *chat.Message) (any, error) {
	req := geminiRequest{
		model:  block.Params.Model,
		params: block.Params,
		parts:  geminiParts(block.Request),
	}
	if system != nil {
		req.system = &genai.Content{Parts: []genai.Part{genai.Text(system.Content)}}
	}
	for _, b := range conv.Blocks() {
		if b.Response == nil || b.ID == block.ID {
			continue
		}
		req.history = append(req.history,
			&genai.Content{Role: "user", Parts: geminiParts(b.Request)},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(b.Response.Content)}},
		)
	}
	return req, nil
}

func geminiParts(m chat.Message) []genai.Part {
	parts := []genai.Part{genai.Text(chat.InlineTextAttachments(m.Content, m.Attachments))}
	for _, a := range m.Attachments {
		if a.IsImage() || a.IsAudio() {
			parts = append(parts, genai.Blob{MIMEType: a.ResolvedMIME(), Data: a.Data})
		}
	}
	return parts
}

// Complete opens the chat session and sends the new message.
func (e *GeminiEngine) Complete(ctx context.Context, request any, stream bool) (any, error) {
	req, ok := request.(geminiRequest)
	if !ok {
		return nil, &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected request payload %T", request)}
	}
	model := e.client.GenerativeModel(req.model)
	model.SetTemperature(float32(req.params.Temperature))
	model.SetTopP(float32(req.params.TopP))
	if req.params.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.params.MaxTokens))
	}
	model.SystemInstruction = req.system

	session := model.StartChat()
	session.History = req.history
	if stream {
		return session.SendMessageStream(ctx, req.parts...), nil
	}
	resp, err := session.SendMessage(ctx, req.parts...)
	if err != nil {
		return nil, e.classify(err)
	}
	return resp, nil
}

// StreamResponse forwards the text of each streamed candidate chunk.
func (e *GeminiEngine) StreamResponse(ctx context.Context, raw any) <-chan Fragment {
	out := make(chan Fragment)
	it, ok := raw.(*genai.GenerateContentResponseIterator)
	if !ok {
		go func() {
			out <- Fragment{Err: &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected stream handle %T", raw)}}
			close(out)
		}()
		return out
	}
	go func() {
		defer close(out)
		for {
			resp, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				out <- Fragment{Err: e.classify(err)}
				return
			}
			text := geminiText(resp)
			if text == "" {
				continue
			}
			select {
			case out <- Fragment{Text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// WholeResponse extracts the text of a complete response.
func (e *GeminiEngine) WholeResponse(raw any) (chat.Message, error) {
	resp, ok := raw.(*genai.GenerateContentResponse)
	if !ok {
		return chat.Message{}, &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected response %T", raw)}
	}
	text := geminiText(resp)
	if text == "" {
		return chat.Message{}, &FatalProviderError{Provider: e.account.Provider.Name, Err: errors.New("empty response")}
	}
	return chat.NewMessage(chat.RoleAssistant, text), nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

func (e *GeminiEngine) classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(e.account.Provider.Name, apiErr.Code, err)
	}
	return classifyNet(e.account.Provider.Name, err)
}

var _ Engine = (*GeminiEngine)(nil)
