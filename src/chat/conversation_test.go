package chat

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
)

func TestAppendAndSnapshot(t *testing.T) {
	conv := NewConversation()
	b1 := NewMessageBlock(NewMessage(RoleUser, "first"), BlockParams{Model: "m"})
	b2 := NewMessageBlock(NewMessage(RoleUser, "second"), BlockParams{Model: "m"})
	conv.Append(b1)
	conv.Append(b2)

	blocks := conv.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].ID != b1.ID || blocks[1].ID != b2.ID {
		t.Fatalf("blocks out of order")
	}

	// The snapshot slice is detached from the conversation.
	blocks[0] = nil
	if conv.Blocks()[0] == nil {
		t.Fatal("snapshot aliased internal storage")
	}
}

func TestStreamedResponseAccumulation(t *testing.T) {
	conv := NewConversation()
	b := NewMessageBlock(NewMessage(RoleUser, "hi"), BlockParams{Stream: true})
	conv.Append(b)

	if !conv.BeginResponse(b.ID) {
		t.Fatal("BeginResponse refused a pending block")
	}
	if conv.BeginResponse(b.ID) {
		t.Fatal("BeginResponse must be write-once")
	}
	conv.AppendResponseText(b.ID, "Hello")
	conv.AppendResponseText(b.ID, " world")
	conv.FinishBlock(b.ID, FinishOK)

	resp, ok := conv.Response(b.ID)
	if !ok {
		t.Fatal("response missing")
	}
	if resp.Content != "Hello world" {
		t.Fatalf("got %q", resp.Content)
	}
	if resp.Role != RoleAssistant {
		t.Fatalf("response role = %s", resp.Role)
	}
	if !b.Answered() {
		t.Fatal("block should be answered")
	}
	if conv.AppendResponseText(b.ID, "late") {
		t.Fatal("append after finish must be rejected")
	}
}

func TestFinishBlockKeepsPartialContent(t *testing.T) {
	conv := NewConversation()
	b := NewMessageBlock(NewMessage(RoleUser, "hi"), BlockParams{Stream: true})
	conv.Append(b)
	conv.BeginResponse(b.ID)
	conv.AppendResponseText(b.ID, "partial")
	conv.FinishBlock(b.ID, FinishCancelled)

	resp, ok := conv.Response(b.ID)
	if !ok || resp.Content != "partial" {
		t.Fatalf("partial content lost: %q ok=%v", resp.Content, ok)
	}
	if b.Finish != FinishCancelled {
		t.Fatalf("finish = %q", b.Finish)
	}
	if conv.FinishBlock(b.ID, FinishOK) {
		t.Fatal("terminal finish must not be overwritten")
	}
}

func TestReplaceResponseOnlyAfterFinish(t *testing.T) {
	conv := NewConversation()
	b := NewMessageBlock(NewMessage(RoleUser, "hi"), BlockParams{})
	conv.Append(b)

	if conv.ReplaceResponse(b.ID, NewMessage(RoleAssistant, "early"), FinishOK) {
		t.Fatal("replace on a pending block must be rejected")
	}
	conv.CompleteResponse(b.ID, NewMessage(RoleAssistant, "v1"))
	if !conv.ReplaceResponse(b.ID, NewMessage(RoleAssistant, "v2"), FinishOK) {
		t.Fatal("replace on a finished block must succeed")
	}
	resp, _ := conv.Response(b.ID)
	if resp.Content != "v2" {
		t.Fatalf("got %q", resp.Content)
	}
}

func TestSystemMessageCopied(t *testing.T) {
	conv := NewConversation()
	sys := NewMessage(RoleSystem, "be brief")
	conv.SetSystem(&sys)

	got := conv.System()
	got.Content = "mutated"
	if conv.System().Content != "be brief" {
		t.Fatal("System returned an aliased pointer")
	}

	conv.SetSystem(nil)
	if conv.System() != nil {
		t.Fatal("clearing the system message failed")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	conv := NewConversation()
	sys := NewMessage(RoleSystem, "you are terse")
	conv.SetSystem(&sys)

	// One streamed, completed exchange.
	b1 := NewMessageBlock(NewMessage(RoleUser, "hello"), BlockParams{Model: "gpt-4o-mini", Temperature: 0.7, Stream: true})
	conv.Append(b1)
	conv.BeginResponse(b1.ID)
	conv.AppendResponseText(b1.ID, "hi ")
	conv.AppendResponseText(b1.ID, "there")
	conv.FinishBlock(b1.ID, FinishOK)

	// One cancelled exchange with partial content.
	b2 := NewMessageBlock(NewMessage(RoleUser, "count to ten",
		Attachment{Name: "notes.txt", MIME: "text/plain", Data: []byte("n")}), BlockParams{Model: "gpt-4o-mini", Stream: true})
	conv.Append(b2)
	conv.BeginResponse(b2.ID)
	conv.AppendResponseText(b2.ID, "one two")
	conv.FinishBlock(b2.ID, FinishCancelled)

	data, err := json.Marshal(conv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored Conversation
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.ID() != conv.ID() {
		t.Fatalf("id changed: %s != %s", restored.ID(), conv.ID())
	}
	if restored.System() == nil || restored.System().Content != "you are terse" {
		t.Fatal("system message lost")
	}
	blocks := restored.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Response.Content != "hi there" || blocks[0].Finish != FinishOK {
		t.Fatalf("streamed block corrupted: %+v", blocks[0])
	}
	if blocks[1].Response.Content != "one two" || blocks[1].Finish != FinishCancelled {
		t.Fatalf("cancelled block corrupted: %+v", blocks[1])
	}
	if blocks[1].Request.Attachments[0].Name != "notes.txt" {
		t.Fatal("attachment lost")
	}
	if blocks[0].Params.Temperature != 0.7 {
		t.Fatal("params lost")
	}
}

func TestUnmarshalRejectsNewerSchema(t *testing.T) {
	data := []byte(fmt.Sprintf(`{"version":%d,"messages":[]}`, SchemaVersion+1))
	var conv Conversation
	if err := json.Unmarshal(data, &conv); err == nil {
		t.Fatal("expected a schema version error")
	}
}

func TestConcurrentAppendAndRead(t *testing.T) {
	conv := NewConversation()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				conv.Append(NewMessageBlock(NewMessage(RoleUser, "x"), BlockParams{}))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = conv.Blocks()
				_ = conv.Len()
			}
		}()
	}
	wg.Wait()
	if conv.Len() != 400 {
		t.Fatalf("expected 400 blocks, got %d", conv.Len())
	}
}
