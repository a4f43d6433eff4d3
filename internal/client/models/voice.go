package models

import (
	"bytes"
	"encoding/json"
	"time"
)

type VoiceParticipant struct {
	RoomKey                 string    `json:"room_key"`
	UserID                  string    `json:"user_id"`
	Muted                   bool      `json:"muted"`
	Deafened                bool      `json:"deafened"`
	ModeratorForcedMuted    bool      `json:"moderator_forced_muted"`
	ModeratorForcedDeafened bool      `json:"moderator_forced_deafened"`
	JoinedAt                time.Time `json:"joined_at"`
}

// UnmarshalJSON accepts loosely typed flags: null, false, 0 and "" are
// false, any other value is true. Missing flags are false.
func (p *VoiceParticipant) UnmarshalJSON(data []byte) error {
	var row struct {
		RoomKey                 string          `json:"room_key"`
		UserID                  string          `json:"user_id"`
		Muted                   json.RawMessage `json:"muted"`
		Deafened                json.RawMessage `json:"deafened"`
		ModeratorForcedMuted    json.RawMessage `json:"moderator_forced_muted"`
		ModeratorForcedDeafened json.RawMessage `json:"moderator_forced_deafened"`
		JoinedAt                time.Time       `json:"joined_at"`
	}
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	*p = VoiceParticipant{
		RoomKey:                 row.RoomKey,
		UserID:                  row.UserID,
		Muted:                   truthy(row.Muted),
		Deafened:                truthy(row.Deafened),
		ModeratorForcedMuted:    truthy(row.ModeratorForcedMuted),
		ModeratorForcedDeafened: truthy(row.ModeratorForcedDeafened),
		JoinedAt:                row.JoinedAt,
	}
	return nil
}

func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`:
		return false
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n != 0
	}
	return true
}

type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
)

// VoiceSignal is a WebRTC signalling message. A nil TargetID addresses
// everyone in the room.
type VoiceSignal struct {
	ID        int64          `json:"id"`
	RoomKey   string         `json:"room_key"`
	SenderID  string         `json:"sender_id"`
	TargetID  *string        `json:"target_id"`
	Kind      SignalKind     `json:"kind"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// LivekitToken grants access to a LiveKit room.
type LivekitToken struct {
	URL        string `json:"url"`
	Token      string `json:"token"`
	Identity   string `json:"identity"`
	Room       string `json:"room"`
	TTLSeconds int    `json:"ttlSeconds"`
	ExpiresAt  string `json:"expiresAt"`
}
