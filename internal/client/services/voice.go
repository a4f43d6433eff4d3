package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

const (
	participantColumns       = "room_key,user_id,muted,deafened,moderator_forced_muted,moderator_forced_deafened,joined_at"
	legacyParticipantColumns = "room_key,user_id,muted,deafened,joined_at"
)

// ErrIncompleteLivekitToken is returned when the token endpoint answers
// without one of the fields a LiveKit connection needs.
var ErrIncompleteLivekitToken = fmt.Errorf("%w: LiveKit token response is missing required fields", common.ErrUnexpectedResponse)

// VoiceService covers voice room presence, moderator overrides, WebRTC
// signalling and LiveKit tokens.
//
// Contract:
//   - Joining twice updates the existing participant row.
//   - Signals are visible to the sender, the target and, when untargeted,
//     to everyone in the room.
type VoiceService interface {
	JoinVoiceRoom(ctx context.Context, accessToken, roomKey, userID string, muted, deafened bool) ([]models.VoiceParticipant, error)
	LeaveVoiceRoom(ctx context.Context, accessToken, roomKey, userID string) error
	SetVoiceMute(ctx context.Context, accessToken, roomKey, userID string, muted bool) ([]models.VoiceParticipant, error)
	SetVoiceState(ctx context.Context, accessToken, roomKey, userID string, muted, deafened bool) ([]models.VoiceParticipant, error)
	ListVoiceParticipants(ctx context.Context, accessToken, roomKey string) ([]models.VoiceParticipant, error)
	// ForceVoiceParticipantState sets moderator overrides; nil leaves one
	// unchanged.
	ForceVoiceParticipantState(ctx context.Context, accessToken, roomKey, targetUserID string, forceMuted, forceDeafened *bool) (*models.VoiceParticipant, error)
	KickVoiceParticipant(ctx context.Context, accessToken, roomKey, targetUserID string) (bool, error)

	SendVoiceSignal(ctx context.Context, accessToken, roomKey, senderID string, targetID *string, kind models.SignalKind, payload map[string]any) ([]models.VoiceSignal, error)
	ListVoiceSignals(ctx context.Context, accessToken, roomKey, currentUserID string, sinceID int64) ([]models.VoiceSignal, error)
	GetLatestVoiceSignalID(ctx context.Context, accessToken, roomKey, currentUserID string) (int64, error)

	RequestLivekitToken(ctx context.Context, accessToken, roomKey string) (*models.LivekitToken, error)
}

type voiceService struct {
	base
}

func NewVoiceService(c client.Client, log logging.Logger) VoiceService {
	return &voiceService{base: newBase(c, log)}
}

func participantQuery(roomKey, userID string) url.Values {
	return query("room_key", eq(roomKey), "user_id", eq(userID))
}

func (s *voiceService) JoinVoiceRoom(ctx context.Context, accessToken, roomKey, userID string, muted, deafened bool) ([]models.VoiceParticipant, error) {
	body := []map[string]any{{"room_key": roomKey, "user_id": userID, "muted": muted, "deafened": deafened}}
	var rows []models.VoiceParticipant
	err := client.Upsert(ctx, s.client, accessToken, "voice_participants", nil, body, &rows)
	return rows, err
}

func (s *voiceService) LeaveVoiceRoom(ctx context.Context, accessToken, roomKey, userID string) error {
	return client.Delete(ctx, s.client, accessToken, "voice_participants", participantQuery(roomKey, userID), "", nil)
}

func (s *voiceService) SetVoiceMute(ctx context.Context, accessToken, roomKey, userID string, muted bool) ([]models.VoiceParticipant, error) {
	var rows []models.VoiceParticipant
	err := client.Update(ctx, s.client, accessToken, "voice_participants", participantQuery(roomKey, userID),
		map[string]any{"muted": muted}, &rows)
	return rows, err
}

func (s *voiceService) SetVoiceState(ctx context.Context, accessToken, roomKey, userID string, muted, deafened bool) ([]models.VoiceParticipant, error) {
	var rows []models.VoiceParticipant
	err := client.Update(ctx, s.client, accessToken, "voice_participants", participantQuery(roomKey, userID),
		map[string]any{"muted": muted, "deafened": deafened}, &rows)
	return rows, err
}

// ListVoiceParticipants reads the moderator override columns when the
// backend has them; otherwise both overrides read as false.
func (s *voiceService) ListVoiceParticipants(ctx context.Context, accessToken, roomKey string) ([]models.VoiceParticipant, error) {
	list := func(columns string) func(ctx context.Context) ([]models.VoiceParticipant, error) {
		return func(ctx context.Context) ([]models.VoiceParticipant, error) {
			var rows []models.VoiceParticipant
			q := query("select", columns, "room_key", eq(roomKey), "order", "joined_at.asc")
			err := client.Select(ctx, s.client, accessToken, "voice_participants", q, &rows)
			return rows, err
		}
	}
	return compat(ctx, s.base, "ListVoiceParticipants", list(participantColumns),
		schemacompat.MissingChannelSettings, schemacompat.Legacy(list(legacyParticipantColumns)))
}

func (s *voiceService) ForceVoiceParticipantState(ctx context.Context, accessToken, roomKey, targetUserID string, forceMuted, forceDeafened *bool) (*models.VoiceParticipant, error) {
	call := func(mutedKey, deafenedKey string) func(ctx context.Context) (*models.VoiceParticipant, error) {
		return rpcRow[models.VoiceParticipant](s.base, accessToken, "force_voice_participant_state", map[string]any{
			"p_room_key":       roomKey,
			"p_target_user_id": targetUserID,
			mutedKey:           forceMuted,
			deafenedKey:        forceDeafened,
		})
	}
	return compat(ctx, s.base, "ForceVoiceParticipantState", call("p_force_muted", "p_force_deafened"),
		schemacompat.MissingChannelSettings, schemacompat.Legacy(call("p_muted", "p_deafened")))
}

func (s *voiceService) KickVoiceParticipant(ctx context.Context, accessToken, roomKey, targetUserID string) (bool, error) {
	var ok bool
	params := map[string]any{"p_room_key": roomKey, "p_target_user_id": targetUserID}
	err := client.RPC(ctx, s.client, accessToken, "kick_voice_participant", params, &ok)
	return ok, err
}

func (s *voiceService) SendVoiceSignal(ctx context.Context, accessToken, roomKey, senderID string, targetID *string, kind models.SignalKind, payload map[string]any) ([]models.VoiceSignal, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	body := []map[string]any{{
		"room_key":  roomKey,
		"sender_id": senderID,
		"target_id": targetID,
		"kind":      kind,
		"payload":   payload,
	}}
	var rows []models.VoiceSignal
	err := client.Insert(ctx, s.client, accessToken, "voice_signals", body, &rows)
	return rows, err
}

// visibleSignals restricts voice_signals to what currentUserID may see.
// The id is quoted so reserved characters stay part of the value.
func visibleSignals(currentUserID string) string {
	id := quoteFilterValue(currentUserID)
	return fmt.Sprintf("(target_id.is.null,target_id.eq.%s,sender_id.eq.%s)", id, id)
}

var filterValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteFilterValue(v string) string {
	return `"` + filterValueEscaper.Replace(v) + `"`
}

// ListVoiceSignals returns signals newer than sinceID, oldest first.
func (s *voiceService) ListVoiceSignals(ctx context.Context, accessToken, roomKey, currentUserID string, sinceID int64) ([]models.VoiceSignal, error) {
	var rows []models.VoiceSignal
	q := query(
		"select", "id,room_key,sender_id,target_id,kind,payload,created_at",
		"room_key", eq(roomKey),
		"id", "gt."+strconv.FormatInt(sinceID, 10),
		"or", visibleSignals(currentUserID),
		"order", "id.asc",
	)
	err := client.Select(ctx, s.client, accessToken, "voice_signals", q, &rows)
	return rows, err
}

// GetLatestVoiceSignalID returns the newest visible signal id, or 0 for an
// empty room. Use it as the starting cursor for ListVoiceSignals.
func (s *voiceService) GetLatestVoiceSignalID(ctx context.Context, accessToken, roomKey, currentUserID string) (int64, error) {
	var rows []struct {
		ID json.RawMessage `json:"id"`
	}
	q := query(
		"select", "id",
		"room_key", eq(roomKey),
		"or", visibleSignals(currentUserID),
		"order", "id.desc",
		"limit", "1",
	)
	if err := client.Select(ctx, s.client, accessToken, "voice_signals", q, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	var id float64
	if err := json.Unmarshal(rows[0].ID, &id); err != nil {
		return 0, nil
	}
	return max(0, int64(id)), nil
}

// RequestLivekitToken asks the backend for a LiveKit access token, scoped to
// roomKey when it is not blank.
func (s *voiceService) RequestLivekitToken(ctx context.Context, accessToken, roomKey string) (*models.LivekitToken, error) {
	body := map[string]any{}
	if rk := strings.TrimSpace(roomKey); rk != "" {
		body["roomKey"] = rk
	}
	var resp map[string]json.RawMessage
	err := s.client.Do(ctx, client.Request{
		Method:         http.MethodPost,
		Path:           "/api/voice/livekit-token",
		Direct:         true,
		Body:           body,
		AccessToken:    accessToken,
		FailureMessage: "Could not request LiveKit token.",
	}, &resp)
	if err != nil {
		return nil, err
	}

	text := func(key string) string {
		var v string
		if json.Unmarshal(resp[key], &v) != nil {
			return ""
		}
		return strings.TrimSpace(v)
	}
	tok := &models.LivekitToken{
		URL:        text("url"),
		Token:      text("token"),
		Identity:   text("identity"),
		Room:       text("room"),
		ExpiresAt:  text("expiresAt"),
		TTLSeconds: ttlSeconds(resp["ttlSeconds"]),
	}
	if tok.URL == "" || tok.Token == "" || tok.Identity == "" || tok.Room == "" || tok.ExpiresAt == "" || tok.TTLSeconds <= 0 {
		return nil, ErrIncompleteLivekitToken
	}
	return tok, nil
}

// ttlSeconds accepts a number or a numeric string.
func ttlSeconds(raw json.RawMessage) int {
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return int(n)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return int(f)
		}
	}
	return 0
}
