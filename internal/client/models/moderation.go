package models

import (
	"encoding/json"
	"time"
)

type GlytchBan struct {
	GlytchID int64     `json:"glytch_id"`
	UserID   string    `json:"user_id"`
	BannedBy string    `json:"banned_by"`
	Reason   *string   `json:"reason,omitempty"`
	BannedAt time.Time `json:"banned_at"`
}

type UnbanRequestStatus string

const (
	UnbanPending  UnbanRequestStatus = "pending"
	UnbanApproved UnbanRequestStatus = "approved"
	UnbanRejected UnbanRequestStatus = "rejected"
)

type GlytchUnbanRequest struct {
	ID          int64              `json:"id"`
	GlytchID    int64              `json:"glytch_id"`
	UserID      string             `json:"user_id"`
	Status      UnbanRequestStatus `json:"status"`
	Message     *string            `json:"message,omitempty"`
	RequestedAt time.Time          `json:"requested_at"`
	ReviewedBy  *string            `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time         `json:"reviewed_at,omitempty"`
	ReviewNote  *string            `json:"review_note,omitempty"`
}

// GlytchBotSettings configures the built-in moderation bot of a Glytch.
type GlytchBotSettings struct {
	GlytchID                int64    `json:"glytch_id"`
	Enabled                 bool     `json:"enabled"`
	BlockExternalLinks      bool     `json:"block_external_links"`
	BlockInviteLinks        bool     `json:"block_invite_links"`
	BlockBlockedWords       bool     `json:"block_blocked_words"`
	BlockedWords            []string `json:"blocked_words"`
	DmOnKickOrBan           bool     `json:"dm_on_kick_or_ban"`
	DmOnMessageBlock        bool     `json:"dm_on_message_block"`
	ThirdPartyBotsEnabled   bool     `json:"third_party_bots_enabled"`
	ThirdPartyBotWebhookURL *string  `json:"third_party_bot_webhook_url"`
	UpdatedBy               *string  `json:"updated_by"`
	UpdatedAt               string   `json:"updated_at,omitempty"`
}

// DefaultBotSettings is what a Glytch uses before anyone configures its bot.
func DefaultBotSettings(glytchID int64) GlytchBotSettings {
	return GlytchBotSettings{
		GlytchID:         glytchID,
		Enabled:          true,
		BlockInviteLinks: true,
		BlockedWords:     []string{},
		DmOnKickOrBan:    true,
		DmOnMessageBlock: true,
	}
}

// DecodeBotSettings overlays the fields of raw that have the right JSON
// type onto the defaults for glytchID. blocked_words keeps only its string
// elements.
func DecodeBotSettings(raw []byte, glytchID int64) (GlytchBotSettings, error) {
	s := DefaultBotSettings(glytchID)
	var row map[string]json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil {
		return s, err
	}

	flags := map[string]*bool{
		"enabled":                  &s.Enabled,
		"block_external_links":     &s.BlockExternalLinks,
		"block_invite_links":       &s.BlockInviteLinks,
		"block_blocked_words":      &s.BlockBlockedWords,
		"dm_on_kick_or_ban":        &s.DmOnKickOrBan,
		"dm_on_message_block":      &s.DmOnMessageBlock,
		"third_party_bots_enabled": &s.ThirdPartyBotsEnabled,
	}
	for key, dst := range flags {
		var b bool
		if v, ok := row[key]; ok && json.Unmarshal(v, &b) == nil && string(v) != "null" {
			*dst = b
		}
	}

	if id, ok := ParseID(row["glytch_id"]); ok {
		s.GlytchID = id
	}
	var words []json.RawMessage
	if json.Unmarshal(row["blocked_words"], &words) == nil {
		for _, w := range words {
			if str, ok := rawString(w); ok {
				s.BlockedWords = append(s.BlockedWords, str)
			}
		}
	}
	if str, ok := rawString(row["third_party_bot_webhook_url"]); ok {
		s.ThirdPartyBotWebhookURL = &str
	}
	if str, ok := rawString(row["updated_by"]); ok {
		s.UpdatedBy = &str
	}
	if str, ok := rawString(row["updated_at"]); ok {
		s.UpdatedAt = str
	}
	return s, nil
}

// BotSettingsUpdate is a partial bot settings change. Nil fields keep their
// stored value. The webhook URL is applied only when set, so it can be
// cleared with Null.
type BotSettingsUpdate struct {
	Enabled                 *bool
	BlockExternalLinks      *bool
	BlockInviteLinks        *bool
	BlockBlockedWords       *bool
	BlockedWords            []string
	DmOnKickOrBan           *bool
	DmOnMessageBlock        *bool
	ThirdPartyBotsEnabled   *bool
	ThirdPartyBotWebhookURL Optional[string]
}
