package chat

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is a lightweight in-memory file attached to a request message.
// Name is used for display; MIME should be best-effort (e.g., "image/png").
type Attachment struct {
	Name string `json:"name"`
	MIME string `json:"mime,omitempty"`
	Data []byte `json:"data,omitempty"`
}

// ResolvedMIME normalizes the declared MIME type, falling back to the
// file extension when the declaration is missing or malformed.
func (a Attachment) ResolvedMIME() string {
	return normalizeMIME(a.Name, a.MIME)
}

func (a Attachment) IsImage() bool { return isImageMIME(a.ResolvedMIME()) }
func (a Attachment) IsAudio() bool { return isAudioMIME(a.ResolvedMIME()) }
func (a Attachment) IsText() bool  { return isTextMIME(a.ResolvedMIME()) }

// Message is one turn in a conversation. Treat it as immutable once built;
// edits go through the owning Conversation.
type Message struct {
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Created     time.Time    `json:"created,omitzero"`
}

// NewMessage builds a message stamped with the current time.
func NewMessage(role Role, content string, attachments ...Attachment) Message {
	return Message{
		Role:        role,
		Content:     content,
		Attachments: attachments,
		Created:     time.Now().UTC(),
	}
}
