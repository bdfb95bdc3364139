package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/provider"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicEngine speaks the Anthropic Messages API.
type AnthropicEngine struct {
	account provider.Account
	client  *anthropic.Client
}

// NewAnthropicEngine builds an engine for an Anthropic account.
func NewAnthropicEngine(account provider.Account) *AnthropicEngine {
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(account.APIKey),
	)
	return &AnthropicEngine{account: account, client: &cl}
}

func (e *AnthropicEngine) Provider() provider.Provider { return e.account.Provider }

func (e *AnthropicEngine) Capabilities() provider.CapabilitySet {
	return provider.Caps(provider.CapText, provider.CapImage, provider.CapStreaming)
}

// Models returns the curated catalog; Anthropic has no list endpoint worth
// the round trip.
func (e *AnthropicEngine) Models(ctx context.Context) ([]provider.AIModel, error) {
	return anthropicModels(), nil
}

// PrepareRequest maps the history onto Messages API params. The system
// message travels in the dedicated system field, not the message list.
func (e *AnthropicEngine) PrepareRequest(block *chat.MessageBlock, conv *chat.Conversation, system *chat.Message) (any, error) {
	maxTokens := block.Params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(block.Params.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(block.Params.Temperature),
		TopP:        anthropic.Float(block.Params.TopP),
	}
	if system != nil {
		params.System = []anthropic.TextBlockParam{{Text: system.Content}}
	}
	for _, m := range History(block, conv, nil) {
		switch m.Role {
		case chat.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropicBlocks(m)...))
		}
	}
	return params, nil
}

func anthropicBlocks(m chat.Message) []anthropic.ContentBlockParamUnion {
	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(chat.InlineTextAttachments(m.Content, m.Attachments)),
	}
	for _, a := range m.Attachments {
		if !a.IsImage() {
			continue
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(a.ResolvedMIME(), base64.StdEncoding.EncodeToString(a.Data)))
	}
	return blocks
}

// Complete performs the network call.
func (e *AnthropicEngine) Complete(ctx context.Context, request any, stream bool) (any, error) {
	params, ok := request.(anthropic.MessageNewParams)
	if !ok {
		return nil, &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected request payload %T", request)}
	}
	if stream {
		return e.client.Messages.NewStreaming(ctx, params), nil
	}
	msg, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return nil, e.classify(err)
	}
	return msg, nil
}

// StreamResponse forwards text deltas from the event stream.
func (e *AnthropicEngine) StreamResponse(ctx context.Context, raw any) <-chan Fragment {
	out := make(chan Fragment)
	handle, ok := raw.(*ssestream.Stream[anthropic.MessageStreamEventUnion])
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
		for handle.Next() {
			event := handle.Current()
			deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			textDelta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta)
			if !ok || textDelta.Text == "" {
				continue
			}
			select {
			case out <- Fragment{Text: textDelta.Text}:
			case <-ctx.Done():
				return
			}
		}
		if err := handle.Err(); err != nil && ctx.Err() == nil {
			out <- Fragment{Err: e.classify(err)}
		}
	}()
	return out
}

// WholeResponse concatenates the text blocks of a complete message.
func (e *AnthropicEngine) WholeResponse(raw any) (chat.Message, error) {
	msg, ok := raw.(*anthropic.Message)
	if !ok {
		return chat.Message{}, &FatalProviderError{Provider: e.account.Provider.Name, Err: fmt.Errorf("unexpected response %T", raw)}
	}
	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return chat.NewMessage(chat.RoleAssistant, b.String()), nil
}

func (e *AnthropicEngine) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(e.account.Provider.Name, apiErr.StatusCode, err)
	}
	return classifyNet(e.account.Provider.Name, err)
}

var _ Engine = (*AnthropicEngine)(nil)
