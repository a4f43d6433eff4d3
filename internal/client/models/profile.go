package models

import (
	"encoding/json"
	"strings"
	"time"
)

// PresenceStatus is a user's self-reported availability.
type PresenceStatus string

const (
	PresenceActive  PresenceStatus = "active"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
	PresenceOffline PresenceStatus = "offline"
)

// ParsePresenceStatus accepts a status in any letter case.
func ParsePresenceStatus(s string) (PresenceStatus, bool) {
	switch p := PresenceStatus(strings.ToLower(strings.TrimSpace(s))); p {
	case PresenceActive, PresenceAway, PresenceBusy, PresenceOffline:
		return p, true
	}
	return "", false
}

// Theme is an opaque client-side theme document.
type Theme map[string]any

type Profile struct {
	UserID               string          `json:"user_id"`
	Email                *string         `json:"email,omitempty"`
	DisplayName          string          `json:"display_name"`
	Username             string          `json:"username"`
	AvatarURL            *string         `json:"avatar_url,omitempty"`
	BannerURL            *string         `json:"banner_url,omitempty"`
	Bio                  *string         `json:"bio,omitempty"`
	ProfileTheme         Theme           `json:"profile_theme,omitempty"`
	PresenceStatus       *PresenceStatus `json:"presence_status,omitempty"`
	PresenceUpdatedAt    *time.Time      `json:"presence_updated_at,omitempty"`
	CurrentGame          *string         `json:"current_game,omitempty"`
	CurrentGameUpdatedAt *time.Time      `json:"current_game_updated_at,omitempty"`
}

// ProfileCustomization is a partial profile update. Absent fields are left
// unchanged; Null clears a column.
type ProfileCustomization struct {
	DisplayName          Optional[string]
	AvatarURL            Optional[string]
	BannerURL            Optional[string]
	Bio                  Optional[string]
	ProfileTheme         Optional[Theme]
	CurrentGame          Optional[string]
	CurrentGameUpdatedAt Optional[time.Time]
}

func (c ProfileCustomization) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	putOptional(m, "display_name", c.DisplayName)
	putOptional(m, "avatar_url", c.AvatarURL)
	putOptional(m, "banner_url", c.BannerURL)
	putOptional(m, "bio", c.Bio)
	putOptional(m, "profile_theme", c.ProfileTheme)
	putOptional(m, "current_game", c.CurrentGame)
	putOptional(m, "current_game_updated_at", c.CurrentGameUpdatedAt)
	return json.Marshal(m)
}

// Empty reports whether the update changes nothing.
func (c ProfileCustomization) Empty() bool {
	b, _ := c.MarshalJSON()
	return string(b) == "{}"
}

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

type FriendRequest struct {
	ID         int64               `json:"id"`
	SenderID   string              `json:"sender_id"`
	ReceiverID string              `json:"receiver_id"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
}

type ProfileComment struct {
	ID            int64     `json:"id"`
	ProfileUserID string    `json:"profile_user_id"`
	AuthorUserID  string    `json:"author_user_id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// NormalizeUsernameQuery turns user input such as "@Name#1234" into the
// stored username form: lower case, no leading "@", the last "#" dropped
// and only ASCII letters and digits kept.
func NormalizeUsernameQuery(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.TrimLeft(s, "@")
	if i := strings.LastIndex(s, "#"); i > 0 {
		s = s[:i] + s[i+1:]
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
