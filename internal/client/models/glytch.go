package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type Glytch struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	InviteCode  string    `json:"invite_code"`
	Bio         *string   `json:"bio,omitempty"`
	IconURL     *string   `json:"icon_url,omitempty"`
	IsPublic    *bool     `json:"is_public,omitempty"`
	MaxMembers  *int      `json:"max_members,omitempty"`
	MemberCount *int      `json:"member_count,omitempty"`
	IsJoined    *bool     `json:"is_joined,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PublicGlytch is a public directory entry.
type PublicGlytch struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	InviteCode  string    `json:"invite_code"`
	Bio         *string   `json:"bio,omitempty"`
	IconURL     *string   `json:"icon_url,omitempty"`
	IsPublic    bool      `json:"is_public"`
	MaxMembers  *int      `json:"max_members,omitempty"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	IsJoined    bool      `json:"is_joined"`
}

type CreatedGlytch struct {
	GlytchID   int64  `json:"glytch_id"`
	InviteCode string `json:"invite_code"`
	ChannelID  int64  `json:"channel_id"`
}

type JoinedGlytch struct {
	GlytchID int64 `json:"glytch_id"`
}

type DeletedGlytch struct {
	Deleted  bool  `json:"deleted"`
	GlytchID int64 `json:"glytch_id"`
}

// GlytchOptions carries directory settings. A nil IsPublic leaves the
// visibility unchanged; MaxMembers is applied only when set.
type GlytchOptions struct {
	IsPublic   *bool
	MaxMembers Optional[int]
}

type ChannelKind string

const (
	ChannelText  ChannelKind = "text"
	ChannelVoice ChannelKind = "voice"
)

type TextPostMode string

const (
	PostAll        TextPostMode = "all"
	PostImagesOnly TextPostMode = "images_only"
	PostTextOnly   TextPostMode = "text_only"
)

// GlytchChannel is decoded leniently: unknown kinds become text channels,
// unknown post modes become "all", and the voice limit is kept only for
// voice channels with a positive limit.
type GlytchChannel struct {
	ID             int64        `json:"id"`
	GlytchID       int64        `json:"glytch_id"`
	CategoryID     *int64       `json:"category_id"`
	Name           string       `json:"name"`
	Kind           ChannelKind  `json:"kind"`
	TextPostMode   TextPostMode `json:"text_post_mode"`
	VoiceUserLimit *int         `json:"voice_user_limit"`
	ChannelTheme   Theme        `json:"channel_theme"`
	CreatedBy      string       `json:"created_by"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (c *GlytchChannel) UnmarshalJSON(data []byte) error {
	var row struct {
		ID             int64           `json:"id"`
		GlytchID       int64           `json:"glytch_id"`
		CategoryID     *int64          `json:"category_id"`
		Name           string          `json:"name"`
		Kind           json.RawMessage `json:"kind"`
		TextPostMode   json.RawMessage `json:"text_post_mode"`
		VoiceUserLimit json.RawMessage `json:"voice_user_limit"`
		ChannelTheme   json.RawMessage `json:"channel_theme"`
		CreatedBy      string          `json:"created_by"`
		CreatedAt      time.Time       `json:"created_at"`
	}
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}

	*c = GlytchChannel{
		ID:         row.ID,
		GlytchID:   row.GlytchID,
		CategoryID: row.CategoryID,
		Name:       row.Name,
		Kind:       ChannelText,
		CreatedBy:  row.CreatedBy,
		CreatedAt:  row.CreatedAt,
	}
	if s, _ := rawString(row.Kind); s == string(ChannelVoice) {
		c.Kind = ChannelVoice
	}
	c.TextPostMode = PostAll
	if s, _ := rawString(row.TextPostMode); s == string(PostImagesOnly) || s == string(PostTextOnly) {
		c.TextPostMode = TextPostMode(s)
	}
	if c.Kind == ChannelVoice {
		c.VoiceUserLimit = voiceLimit(row.VoiceUserLimit)
	}
	var theme map[string]any
	if json.Unmarshal(row.ChannelTheme, &theme) == nil && theme != nil {
		c.ChannelTheme = theme
	}
	return nil
}

func voiceLimit(raw json.RawMessage) *int {
	var n float64
	if json.Unmarshal(raw, &n) == nil && n >= 1 {
		v := int(n)
		return &v
	}
	if s, ok := rawString(raw); ok {
		if v, ok := leadingInt(s); ok && v >= 1 {
			return &v
		}
	}
	return nil
}

// ChannelSettings is the per-channel configuration. Nil fields are sent as
// null and leave the stored value unchanged.
type ChannelSettings struct {
	TextPostMode   *TextPostMode
	VoiceUserLimit *int
}

type GlytchChannelCategory struct {
	ID        int64     `json:"id"`
	GlytchID  int64     `json:"glytch_id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type GlytchMember struct {
	GlytchID int64     `json:"glytch_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type GlytchRole struct {
	ID          int64           `json:"id"`
	GlytchID    int64           `json:"glytch_id"`
	Name        string          `json:"name"`
	Color       string          `json:"color"`
	Priority    int             `json:"priority"`
	IsSystem    bool            `json:"is_system"`
	IsDefault   bool            `json:"is_default"`
	Permissions map[string]bool `json:"permissions"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DefaultRoleColor is used for new roles when no color is given.
const DefaultRoleColor = "#8eaefb"

// DefaultRolePermissions returns the permission set of a newly created role:
// members can see channels, post and join voice, nothing more.
func DefaultRolePermissions() map[string]bool {
	return map[string]bool{
		"add_roles":           false,
		"manage_channels":     false,
		"create_channels":     false,
		"ban_members":         false,
		"view_channel":        true,
		"send_messages":       true,
		"join_voice":          true,
		"mute_deafen_members": false,
		"kick_voice_members":  false,
		"edit_glytch_profile": false,
		"manage_roles":        false,
		"manage_members":      false,
		"moderate_voice":      false,
	}
}

type GlytchMemberRole struct {
	GlytchID   int64     `json:"glytch_id"`
	UserID     string    `json:"user_id"`
	RoleID     int64     `json:"role_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

type GlytchChannelRolePermission struct {
	GlytchID        int64     `json:"glytch_id"`
	RoleID          int64     `json:"role_id"`
	ChannelID       int64     `json:"channel_id"`
	CanView         bool      `json:"can_view"`
	CanSendMessages bool      `json:"can_send_messages"`
	CanJoinVoice    bool      `json:"can_join_voice"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// rawString decodes raw as a JSON string.
func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	return t == "" || t == "null"
}

// leadingInt parses the leading decimal digits of s, after optional
// whitespace and sign, ignoring anything that follows.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseID reads a positive identifier from a JSON number or a string that
// starts with digits.
func ParseID(raw json.RawMessage) (int64, bool) {
	var n float64
	if !isNull(raw) && json.Unmarshal(raw, &n) == nil {
		if n > 0 {
			return int64(n), true
		}
		return 0, false
	}
	if s, ok := rawString(raw); ok {
		if v, ok := leadingInt(s); ok && v > 0 {
			return int64(v), true
		}
	}
	return 0, false
}
