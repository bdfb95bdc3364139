package engine

import (
	"context"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/provider"
)

func anthropicEngine(t *testing.T) *AnthropicEngine {
	t.Helper()
	p, err := provider.Get("anthropic")
	if err != nil {
		t.Fatal(err)
	}
	acc, err := provider.NewAccount("test", p, "test-key", "", provider.SourceConfig)
	if err != nil {
		t.Fatal(err)
	}
	return NewAnthropicEngine(acc)
}

func TestAnthropicCuratedCatalog(t *testing.T) {
	eng := anthropicEngine(t)
	models, err := eng.Models(context.Background())
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	if len(models) == 0 {
		t.Fatal("empty catalog")
	}
	for _, m := range models {
		if m.ContextWindow != 200000 {
			t.Errorf("%s context window = %d", m.ID, m.ContextWindow)
		}
		if !m.Capabilities.Has(provider.CapImage, provider.CapStreaming) {
			t.Errorf("%s caps = %s", m.ID, m.Capabilities)
		}
	}
}

func TestAnthropicPrepareRequest(t *testing.T) {
	eng := anthropicEngine(t)
	conv := chat.NewConversation()
	system := chat.NewMessage(chat.RoleSystem, "be brief")

	prior := chat.NewMessageBlock(chat.NewMessage(chat.RoleUser, "q1"), chat.BlockParams{})
	conv.Append(prior)
	conv.CompleteResponse(prior.ID, chat.NewMessage(chat.RoleAssistant, "a1"))

	block := chat.NewMessageBlock(chat.NewMessage(chat.RoleUser, "q2"),
		chat.BlockParams{Model: "claude-3-5-haiku-latest", Temperature: 0.5, MaxTokens: 2048})
	conv.Append(block)

	payload, err := eng.PrepareRequest(block, conv, &system)
	if err != nil {
		t.Fatalf("PrepareRequest: %v", err)
	}
	params, ok := payload.(anthropic.MessageNewParams)
	if !ok {
		t.Fatalf("payload type %T", payload)
	}
	if params.Model != "claude-3-5-haiku-latest" || params.MaxTokens != 2048 {
		t.Fatalf("params lost: %+v", params)
	}
	if len(params.System) != 1 || params.System[0].Text != "be brief" {
		t.Fatal("system message must travel in the dedicated field")
	}
	if len(params.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(params.Messages))
	}
	if params.Messages[0].Role != anthropic.MessageParamRoleUser ||
		params.Messages[1].Role != anthropic.MessageParamRoleAssistant ||
		params.Messages[2].Role != anthropic.MessageParamRoleUser {
		t.Fatal("roles out of order")
	}
}

func TestAnthropicMaxTokensDefault(t *testing.T) {
	eng := anthropicEngine(t)
	conv := chat.NewConversation()
	block := chat.NewMessageBlock(chat.NewMessage(chat.RoleUser, "hi"),
		chat.BlockParams{Model: "claude-3-5-haiku-latest"})
	conv.Append(block)

	payload, _ := eng.PrepareRequest(block, conv, nil)
	params := payload.(anthropic.MessageNewParams)
	if params.MaxTokens != anthropicDefaultMaxTokens {
		t.Fatalf("max tokens = %d, want %d", params.MaxTokens, anthropicDefaultMaxTokens)
	}
	if len(params.System) != 0 {
		t.Fatal("no system message was set")
	}
}

func TestAnthropicImageBlocks(t *testing.T) {
	eng := anthropicEngine(t)
	conv := chat.NewConversation()
	block := chat.NewMessageBlock(chat.NewMessage(chat.RoleUser, "what is this?",
		chat.Attachment{Name: "shot.png", Data: []byte{0x89, 0x50}}),
		chat.BlockParams{Model: "claude-3-5-sonnet-latest"})
	conv.Append(block)

	payload, _ := eng.PrepareRequest(block, conv, nil)
	params := payload.(anthropic.MessageNewParams)
	if len(params.Messages) != 1 {
		t.Fatalf("got %d messages", len(params.Messages))
	}
	if len(params.Messages[0].Content) != 2 {
		t.Fatalf("expected text + image blocks, got %d", len(params.Messages[0].Content))
	}
}
