package chat

import "github.com/google/uuid"

// Finish records how a block's response ended.
type Finish string

const (
	// FinishPending marks a block whose completion is still in flight.
	FinishPending Finish = ""
	// FinishOK marks a normally completed response.
	FinishOK Finish = "ok"
	// FinishCancelled marks a response cut short by the user; partial
	// content already received is kept.
	FinishCancelled Finish = "cancelled"
	// FinishFailed marks a block whose completion errored; the request is
	// kept so the user can resubmit.
	FinishFailed Finish = "failed"
)

// BlockParams are the generation parameters captured per request.
type BlockParams struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
	Stream      bool    `json:"stream"`
}

// MessageBlock pairs one request message with at most one response, plus
// the parameters the request was sent with. The response slot starts nil
// and is written exactly once, through the owning Conversation.
type MessageBlock struct {
	ID       uuid.UUID   `json:"id"`
	Request  Message     `json:"request"`
	Response *Message    `json:"response,omitempty"`
	Params   BlockParams `json:"params"`
	Finish   Finish      `json:"finish,omitempty"`
}

// NewMessageBlock builds a fully formed pending block. Blocks are only
// appended to a conversation once construction is complete.
func NewMessageBlock(request Message, params BlockParams) *MessageBlock {
	return &MessageBlock{
		ID:      uuid.New(),
		Request: request,
		Params:  params,
	}
}

// Pending reports whether the block is still awaiting its response.
func (b *MessageBlock) Pending() bool { return b.Finish == FinishPending }

// Answered reports whether the block holds a normally completed response.
func (b *MessageBlock) Answered() bool { return b.Finish == FinishOK && b.Response != nil }
