package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

// GroupChatService covers multi-user chats.
type GroupChatService interface {
	ListGroupChats(ctx context.Context, accessToken string) ([]models.GroupChat, error)
	ListGroupChatMembers(ctx context.Context, accessToken string, groupChatID int64) ([]models.GroupChatMember, error)
	CreateGroupChat(ctx context.Context, accessToken, name string, memberIDs []string) (int64, error)
	AddGroupChatMembers(ctx context.Context, accessToken string, groupChatID int64, memberIDs []string) (int, error)
	ListUnreadGroupChatCounts(ctx context.Context, accessToken string, groupChatIDs []int64) ([]models.UnreadCount, error)
	MarkGroupChatRead(ctx context.Context, accessToken string, groupChatID int64) (*models.GroupReadResult, error)

	FetchGroupChatMessages(ctx context.Context, accessToken string, groupChatID int64) ([]models.Message, error)
	FetchLatestGroupChatMessages(ctx context.Context, accessToken string, groupChatIDs []int64) ([]models.Message, error)
	CreateGroupChatMessage(ctx context.Context, accessToken, senderID string, groupChatID int64, content string, att *models.Attachment) ([]models.Message, error)
	UpdateGroupChatMessage(ctx context.Context, accessToken string, messageID int64, content string) ([]models.Message, error)

	ListGroupChatMessageReactions(ctx context.Context, accessToken string, messageIDs []int64) ([]models.Reaction, error)
	AddGroupChatMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) ([]models.Reaction, error)
	DeleteGroupChatMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) error
}

type groupChatService struct {
	base
	msgs messageStore
}

func NewGroupChatService(c client.Client, log logging.Logger) GroupChatService {
	b := newBase(c, log)
	return &groupChatService{base: b, msgs: newMessageStore(b, groupScope)}
}

func (s *groupChatService) ListGroupChats(ctx context.Context, accessToken string) ([]models.GroupChat, error) {
	var rows []models.GroupChat
	q := query("select", "id,created_by,name,created_at", "order", "created_at.asc")
	err := client.Select(ctx, s.client, accessToken, "group_chats", q, &rows)
	return rows, err
}

func (s *groupChatService) ListGroupChatMembers(ctx context.Context, accessToken string, groupChatID int64) ([]models.GroupChatMember, error) {
	var rows []models.GroupChatMember
	q := query(
		"select", "group_chat_id,user_id,added_by,role,joined_at,last_read_message_id",
		"group_chat_id", eq(groupChatID),
		"order", "joined_at.asc",
	)
	err := client.Select(ctx, s.client, accessToken, "group_chat_members", q, &rows)
	return rows, err
}

// CreateGroupChat creates a chat owned by the caller and returns its id. An
// empty name or member list is sent as null and left to the backend.
func (s *groupChatService) CreateGroupChat(ctx context.Context, accessToken, name string, memberIDs []string) (int64, error) {
	var members any
	if ids := uniqueStrings(memberIDs); len(ids) > 0 {
		members = ids
	}
	params := map[string]any{
		"p_name":       nullable(strings.TrimSpace(name)),
		"p_member_ids": members,
	}
	var row struct {
		GroupChatID json.RawMessage `json:"group_chat_id"`
	}
	if err := client.RPC(ctx, s.client, accessToken, "create_group_chat", params, &row); err != nil {
		return 0, err
	}
	id, ok := models.ParseID(row.GroupChatID)
	if !ok {
		return 0, fmt.Errorf("%w: group chat was created but no valid id was returned", common.ErrUnexpectedResponse)
	}
	return id, nil
}

// AddGroupChatMembers returns how many members were actually added.
func (s *groupChatService) AddGroupChatMembers(ctx context.Context, accessToken string, groupChatID int64, memberIDs []string) (int, error) {
	if groupChatID <= 0 {
		return 0, invalidArg("group chat id %d", groupChatID)
	}
	ids := uniqueStrings(memberIDs)
	if len(ids) == 0 {
		return 0, nil
	}
	var row struct {
		InsertedCount json.RawMessage `json:"inserted_count"`
	}
	params := map[string]any{"p_group_chat_id": groupChatID, "p_member_ids": ids}
	if err := client.RPC(ctx, s.client, accessToken, "add_group_chat_members", params, &row); err != nil {
		return 0, err
	}
	n, _ := models.ParseID(row.InsertedCount)
	return int(n), nil
}

// ListUnreadGroupChatCounts drops rows with an invalid chat id and clamps
// negative counts to zero.
func (s *groupChatService) ListUnreadGroupChatCounts(ctx context.Context, accessToken string, groupChatIDs []int64) ([]models.UnreadCount, error) {
	ids := uniquePositive(groupChatIDs)
	if len(ids) == 0 {
		return []models.UnreadCount{}, nil
	}
	var rows []struct {
		GroupChatID json.RawMessage `json:"group_chat_id"`
		UnreadCount json.RawMessage `json:"unread_count"`
	}
	err := client.RPC(ctx, s.client, accessToken, "list_group_chat_unread_counts",
		map[string]any{"p_group_chat_ids": ids}, &rows)
	if err != nil {
		return nil, err
	}

	out := make([]models.UnreadCount, 0, len(rows))
	for _, r := range rows {
		id, ok := models.ParseID(r.GroupChatID)
		if !ok {
			continue
		}
		var count float64
		if err := json.Unmarshal(r.UnreadCount, &count); err != nil {
			continue
		}
		out = append(out, models.UnreadCount{GroupChatID: id, UnreadCount: max(0, int(count))})
	}
	return out, nil
}

func (s *groupChatService) MarkGroupChatRead(ctx context.Context, accessToken string, groupChatID int64) (*models.GroupReadResult, error) {
	var res models.GroupReadResult
	err := client.RPC(ctx, s.client, accessToken, "mark_group_chat_read",
		map[string]any{"p_group_chat_id": groupChatID}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *groupChatService) FetchGroupChatMessages(ctx context.Context, accessToken string, groupChatID int64) ([]models.Message, error) {
	return s.msgs.history(ctx, accessToken, groupChatID)
}

func (s *groupChatService) FetchLatestGroupChatMessages(ctx context.Context, accessToken string, groupChatIDs []int64) ([]models.Message, error) {
	return s.msgs.latest(ctx, accessToken, groupChatIDs)
}

func (s *groupChatService) CreateGroupChatMessage(ctx context.Context, accessToken, senderID string, groupChatID int64, content string, att *models.Attachment) ([]models.Message, error) {
	return s.msgs.create(ctx, accessToken, senderID, groupChatID, content, att)
}

func (s *groupChatService) UpdateGroupChatMessage(ctx context.Context, accessToken string, messageID int64, content string) ([]models.Message, error) {
	return s.msgs.update(ctx, accessToken, messageID, content)
}

func (s *groupChatService) ListGroupChatMessageReactions(ctx context.Context, accessToken string, messageIDs []int64) ([]models.Reaction, error) {
	return s.msgs.reactions(ctx, accessToken, messageIDs)
}

func (s *groupChatService) AddGroupChatMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) ([]models.Reaction, error) {
	return s.msgs.addReaction(ctx, accessToken, messageID, userID, emoji)
}

func (s *groupChatService) DeleteGroupChatMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) error {
	return s.msgs.deleteReaction(ctx, accessToken, messageID, userID, emoji)
}
