package services

import (
	"context"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

const (
	msgDMThemeMigration = "Shared DM themes are unavailable until the latest database migration is applied."
	msgDMHideMigration  = "Delete DM from list requires the latest database migration."
	msgDMPinMigration   = "Pin DM requires the latest database migration."
)

// UnreadMessage identifies an unread DM.
type UnreadMessage struct {
	ID             int64 `json:"id"`
	ConversationID int64 `json:"conversation_id"`
}

// DMService covers direct-message conversations, their messages and
// reactions.
//
// Contract:
//   - ListDmConversations works against older backends by falling back to the
//     conversations table, with or without the theme column.
//   - Theme, hide and pin writes fail with a *schemacompat.MigrationError on
//     backends that lack the feature; ListDmConversationUserStates returns an
//     empty list there instead.
//   - Message lists are chronological; latest previews are newest first.
type DMService interface {
	ListDmConversations(ctx context.Context, accessToken string) ([]models.DmConversation, error)
	SetDmConversationTheme(ctx context.Context, accessToken string, conversationID int64, theme models.Theme) (*models.DmConversation, error)
	ListDmConversationUserStates(ctx context.Context, accessToken, userID string, conversationIDs []int64) ([]models.DmConversationUserState, error)
	HideDmConversation(ctx context.Context, accessToken string, conversationID int64) (*models.DmHideResult, error)
	SetDmConversationPinned(ctx context.Context, accessToken string, conversationID int64, pinned bool) (*models.DmPinResult, error)
	MarkDmConversationRead(ctx context.Context, accessToken string, conversationID int64) (*models.DmReadResult, error)

	FetchDmMessages(ctx context.Context, accessToken string, conversationID int64) ([]models.Message, error)
	FetchLatestDmMessages(ctx context.Context, accessToken string, conversationIDs []int64) ([]models.Message, error)
	ListUnreadDmMessages(ctx context.Context, accessToken, userID string, conversationIDs []int64) ([]UnreadMessage, error)
	CreateDmMessage(ctx context.Context, accessToken, senderID string, conversationID int64, content string, att *models.Attachment) ([]models.Message, error)
	UpdateDmMessage(ctx context.Context, accessToken string, messageID int64, content string) ([]models.Message, error)
	DeleteDmMessage(ctx context.Context, accessToken string, messageID int64) error

	ListDmMessageReactions(ctx context.Context, accessToken string, messageIDs []int64) ([]models.Reaction, error)
	AddDmMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) ([]models.Reaction, error)
	DeleteDmMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) error
}

type dmService struct {
	base
	msgs messageStore
}

func NewDMService(c client.Client, log logging.Logger) DMService {
	b := newBase(c, log)
	return &dmService{base: b, msgs: newMessageStore(b, dmScope)}
}

func (s *dmService) ListDmConversations(ctx context.Context, accessToken string) ([]models.DmConversation, error) {
	return compat(ctx, s.base, "ListDmConversations", func(ctx context.Context) ([]models.DmConversation, error) {
		var rows []models.DmConversation
		err := client.RPC(ctx, s.client, accessToken, "list_dm_conversations_for_user", map[string]any{}, &rows)
		return rows, err
	}, schemacompat.AnyOf(schemacompat.MissingDMConversationState, schemacompat.MissingDMTheme),
		schemacompat.Legacy(func(ctx context.Context) ([]models.DmConversation, error) {
			return s.listConversationsLegacy(ctx, accessToken)
		}))
}

func (s *dmService) listConversationsLegacy(ctx context.Context, accessToken string) ([]models.DmConversation, error) {
	list := func(columns string) func(ctx context.Context) ([]models.DmConversation, error) {
		return func(ctx context.Context) ([]models.DmConversation, error) {
			var rows []models.DmConversation
			q := query("select", columns, "order", "created_at.asc")
			err := client.Select(ctx, s.client, accessToken, "dm_conversations", q, &rows)
			return rows, err
		}
	}
	return compat(ctx, s.base, "ListDmConversations/legacy",
		list("id,user_a,user_b,created_at,dm_theme"),
		schemacompat.MissingDMTheme,
		schemacompat.Legacy(list("id,user_a,user_b,created_at")))
}

func (s *dmService) SetDmConversationTheme(ctx context.Context, accessToken string, conversationID int64, theme models.Theme) (*models.DmConversation, error) {
	return compat(ctx, s.base, "SetDmConversationTheme", func(ctx context.Context) (*models.DmConversation, error) {
		var row models.DmConversation
		params := map[string]any{"p_conversation_id": conversationID, "p_theme": theme}
		if err := client.RPC(ctx, s.client, accessToken, "set_dm_conversation_theme", params, &row); err != nil {
			return nil, err
		}
		return &row, nil
	}, schemacompat.MissingDMTheme, schemacompat.RequireMigration[*models.DmConversation](msgDMThemeMigration))
}

func (s *dmService) ListDmConversationUserStates(ctx context.Context, accessToken, userID string, conversationIDs []int64) ([]models.DmConversationUserState, error) {
	ids := uniquePositive(conversationIDs)
	if len(ids) == 0 {
		return []models.DmConversationUserState{}, nil
	}
	return compat(ctx, s.base, "ListDmConversationUserStates", func(ctx context.Context) ([]models.DmConversationUserState, error) {
		var rows []models.DmConversationUserState
		q := query(
			"select", "conversation_id,user_id,is_pinned,pinned_at",
			"user_id", eq(userID),
			"conversation_id", inList(ids),
			"order", "pinned_at.desc",
		)
		err := client.Select(ctx, s.client, accessToken, "dm_conversation_user_state", q, &rows)
		return rows, err
	}, schemacompat.MissingDMConversationState, schemacompat.Default([]models.DmConversationUserState{}))
}

func (s *dmService) HideDmConversation(ctx context.Context, accessToken string, conversationID int64) (*models.DmHideResult, error) {
	return compat(ctx, s.base, "HideDmConversation", func(ctx context.Context) (*models.DmHideResult, error) {
		var res models.DmHideResult
		err := client.RPC(ctx, s.client, accessToken, "hide_dm_conversation",
			map[string]any{"p_conversation_id": conversationID}, &res)
		if err != nil {
			return nil, err
		}
		return &res, nil
	}, schemacompat.MissingDMConversationState, schemacompat.RequireMigration[*models.DmHideResult](msgDMHideMigration))
}

func (s *dmService) SetDmConversationPinned(ctx context.Context, accessToken string, conversationID int64, pinned bool) (*models.DmPinResult, error) {
	return compat(ctx, s.base, "SetDmConversationPinned", func(ctx context.Context) (*models.DmPinResult, error) {
		var res models.DmPinResult
		err := client.RPC(ctx, s.client, accessToken, "set_dm_conversation_pinned",
			map[string]any{"p_conversation_id": conversationID, "p_pinned": pinned}, &res)
		if err != nil {
			return nil, err
		}
		return &res, nil
	}, schemacompat.MissingDMConversationState, schemacompat.RequireMigration[*models.DmPinResult](msgDMPinMigration))
}

func (s *dmService) MarkDmConversationRead(ctx context.Context, accessToken string, conversationID int64) (*models.DmReadResult, error) {
	var res models.DmReadResult
	err := client.RPC(ctx, s.client, accessToken, "mark_dm_conversation_read",
		map[string]any{"p_conversation_id": conversationID}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *dmService) FetchDmMessages(ctx context.Context, accessToken string, conversationID int64) ([]models.Message, error) {
	return s.msgs.history(ctx, accessToken, conversationID)
}

func (s *dmService) FetchLatestDmMessages(ctx context.Context, accessToken string, conversationIDs []int64) ([]models.Message, error) {
	return s.msgs.latest(ctx, accessToken, conversationIDs)
}

// ListUnreadDmMessages returns messages sent to userID that the receiver
// has not read yet.
func (s *dmService) ListUnreadDmMessages(ctx context.Context, accessToken, userID string, conversationIDs []int64) ([]UnreadMessage, error) {
	ids := uniquePositive(conversationIDs)
	if len(ids) == 0 {
		return []UnreadMessage{}, nil
	}
	var rows []UnreadMessage
	q := query(
		"select", "id,conversation_id",
		"conversation_id", inList(ids),
		"sender_id", "neq."+userID,
		"read_by_receiver_at", "is.null",
		"order", "id.desc",
		"limit", "500",
	)
	err := client.Select(ctx, s.client, accessToken, dmScope.table, q, &rows)
	return rows, err
}

func (s *dmService) CreateDmMessage(ctx context.Context, accessToken, senderID string, conversationID int64, content string, att *models.Attachment) ([]models.Message, error) {
	return s.msgs.create(ctx, accessToken, senderID, conversationID, content, att)
}

func (s *dmService) UpdateDmMessage(ctx context.Context, accessToken string, messageID int64, content string) ([]models.Message, error) {
	return s.msgs.update(ctx, accessToken, messageID, content)
}

func (s *dmService) DeleteDmMessage(ctx context.Context, accessToken string, messageID int64) error {
	return s.msgs.delete(ctx, accessToken, messageID)
}

func (s *dmService) ListDmMessageReactions(ctx context.Context, accessToken string, messageIDs []int64) ([]models.Reaction, error) {
	return s.msgs.reactions(ctx, accessToken, messageIDs)
}

func (s *dmService) AddDmMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) ([]models.Reaction, error) {
	return s.msgs.addReaction(ctx, accessToken, messageID, userID, emoji)
}

func (s *dmService) DeleteDmMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) error {
	return s.msgs.deleteReaction(ctx, accessToken, messageID, userID, emoji)
}
