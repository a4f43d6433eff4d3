package models

import "time"

type DmConversation struct {
	ID        int64      `json:"id"`
	UserA     string     `json:"user_a"`
	UserB     string     `json:"user_b"`
	CreatedAt time.Time  `json:"created_at"`
	DmTheme   Theme      `json:"dm_theme,omitempty"`
	IsPinned  bool       `json:"is_pinned,omitempty"`
	PinnedAt  *time.Time `json:"pinned_at,omitempty"`
}

// Peer returns the other participant of the conversation.
func (c DmConversation) Peer(userID string) string {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

type DmConversationUserState struct {
	ConversationID int64      `json:"conversation_id"`
	UserID         string     `json:"user_id"`
	IsPinned       bool       `json:"is_pinned"`
	PinnedAt       *time.Time `json:"pinned_at,omitempty"`
}

type DmReadResult struct {
	UpdatedCount             int  `json:"updated_count"`
	DeletedBotMessageCount   int  `json:"deleted_bot_message_count,omitempty"`
	DeletedEmptyConversation bool `json:"deleted_empty_conversation,omitempty"`
}

type DmHideResult struct {
	ConversationID       int64 `json:"conversation_id"`
	HiddenAfterMessageID int64 `json:"hidden_after_message_id"`
}

type DmPinResult struct {
	ConversationID int64      `json:"conversation_id"`
	IsPinned       bool       `json:"is_pinned"`
	PinnedAt       *time.Time `json:"pinned_at,omitempty"`
}

type GroupChat struct {
	ID        int64     `json:"id"`
	CreatedBy string    `json:"created_by"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupChatMember struct {
	GroupChatID       int64     `json:"group_chat_id"`
	UserID            string    `json:"user_id"`
	AddedBy           *string   `json:"added_by,omitempty"`
	Role              string    `json:"role"`
	JoinedAt          time.Time `json:"joined_at"`
	LastReadMessageID int64     `json:"last_read_message_id"`
}

type GroupReadResult struct {
	Updated           bool  `json:"updated,omitempty"`
	LastReadMessageID int64 `json:"last_read_message_id,omitempty"`
}

// UnreadCount is the number of unread messages in one group chat.
type UnreadCount struct {
	GroupChatID int64 `json:"group_chat_id"`
	UnreadCount int   `json:"unread_count"`
}

// AttachmentType classifies a message attachment.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentGIF   AttachmentType = "gif"
)

// ParseAttachmentType maps anything other than "gif" or "image" to ok=false.
func ParseAttachmentType(s string) (AttachmentType, bool) {
	switch t := AttachmentType(s); t {
	case AttachmentImage, AttachmentGIF:
		return t, true
	}
	return "", false
}

// Message is a chat message in any scope. Exactly one of ConversationID,
// GroupChatID and GlytchChannelID is set, according to where it was posted.
type Message struct {
	ID              int64           `json:"id"`
	ConversationID  int64           `json:"conversation_id,omitempty"`
	GroupChatID     int64           `json:"group_chat_id,omitempty"`
	GlytchChannelID int64           `json:"glytch_channel_id,omitempty"`
	SenderID        string          `json:"sender_id"`
	Content         string          `json:"content"`
	AttachmentURL   *string         `json:"attachment_url,omitempty"`
	AttachmentType  *AttachmentType `json:"attachment_type,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	EditedAt        *time.Time      `json:"edited_at,omitempty"`
	ReadByReceiver  *time.Time      `json:"read_by_receiver_at,omitempty"`
	BotShouldDelete bool            `json:"bot_should_delete,omitempty"`
}

// Attachment returns the attachment reference, or "" when there is none.
func (m Message) Attachment() string {
	if m.AttachmentURL == nil {
		return ""
	}
	return *m.AttachmentURL
}

// Attachment is a stored message attachment ready to be posted.
type Attachment struct {
	URL  string
	Type AttachmentType
}

type Reaction struct {
	MessageID int64     `json:"message_id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}
