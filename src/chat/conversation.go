package chat

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SchemaVersion tags the persistence tree so the external file subsystem
// can migrate older conversations.
const SchemaVersion = 1

// Conversation is the ordered, append-mostly sequence of message blocks
// for one tab. All mutation goes through its methods; reads return
// snapshots so renderers never observe a half-appended block.
type Conversation struct {
	mu     sync.RWMutex
	id     uuid.UUID
	system *Message
	blocks []*MessageBlock
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{id: uuid.New()}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() uuid.UUID { return c.id }

// SetSystem installs the conversation-scoped system message. A nil message
// clears it.
func (c *Conversation) SetSystem(m *Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.system = m
}

// System returns a copy of the system message, or nil.
func (c *Conversation) System() *Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.system == nil {
		return nil
	}
	cp := *c.system
	return &cp
}

// Append adds a fully formed block to the end of the history.
func (c *Conversation) Append(b *MessageBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = append(c.blocks, b)
}

// Blocks returns a snapshot of the block sequence in display order.
func (c *Conversation) Blocks() []*MessageBlock {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*MessageBlock, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Len returns the number of blocks.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

func (c *Conversation) find(id uuid.UUID) *MessageBlock {
	for _, b := range c.blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// BeginResponse installs an empty assistant response on a pending block so
// streamed fragments have somewhere to accumulate.
func (c *Conversation) BeginResponse(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.find(id)
	if b == nil || b.Response != nil {
		return false
	}
	m := NewMessage(RoleAssistant, "")
	b.Response = &m
	return true
}

// AppendResponseText appends one streamed fragment to the in-progress
// response content.
func (c *Conversation) AppendResponseText(id uuid.UUID, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.find(id)
	if b == nil || b.Response == nil || !b.Pending() {
		return false
	}
	b.Response.Content += text
	return true
}

// CompleteResponse sets the whole response message on a pending block and
// marks it finished. Used for non-streamed completions.
func (c *Conversation) CompleteResponse(id uuid.UUID, m Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.find(id)
	if b == nil || !b.Pending() {
		return false
	}
	b.Response = &m
	b.Finish = FinishOK
	return true
}

// FinishBlock marks a pending block with its terminal finish state,
// keeping whatever response content has accumulated.
func (c *Conversation) FinishBlock(id uuid.UUID, finish Finish) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.find(id)
	if b == nil || !b.Pending() {
		return false
	}
	b.Finish = finish
	return true
}

// Response returns a copy of a block's response message, if set.
func (c *Conversation) Response(id uuid.UUID) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b := c.find(id)
	if b == nil || b.Response == nil {
		return Message{}, false
	}
	return *b.Response, true
}

// ReplaceResponse swaps a finished block's response for a new one, as for
// an edit or regenerate. Pending blocks are left alone.
func (c *Conversation) ReplaceResponse(id uuid.UUID, m Message, finish Finish) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.find(id)
	if b == nil || b.Pending() {
		return false
	}
	b.Response = &m
	b.Finish = finish
	return true
}

type conversationTree struct {
	Version int             `json:"version"`
	ID      uuid.UUID       `json:"id"`
	System  *Message        `json:"system,omitempty"`
	Blocks  []*MessageBlock `json:"messages"`
}

// MarshalJSON emits the versioned persistence tree consumed by the
// external conversation-file subsystem.
func (c *Conversation) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(conversationTree{
		Version: SchemaVersion,
		ID:      c.id,
		System:  c.system,
		Blocks:  c.blocks,
	})
}

// UnmarshalJSON rebuilds a conversation from its persistence tree.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var tree conversationTree
	if err := json.Unmarshal(data, &tree); err != nil {
		return err
	}
	if tree.Version > SchemaVersion {
		return fmt.Errorf("conversation schema version %d is newer than supported version %d", tree.Version, SchemaVersion)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = tree.ID
	if c.id == uuid.Nil {
		c.id = uuid.New()
	}
	c.system = tree.System
	c.blocks = tree.Blocks
	return nil
}
