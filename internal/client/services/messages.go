package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
)

// historyLimit is how many recent messages a conversation view loads.
const historyLimit = 250

const messageColumns = "id,%s,sender_id,content,attachment_url,attachment_type,created_at,edited_at"

// messageScope describes the tables of one kind of conversation. DMs, group
// chats and Glytch channels share the message and reaction shapes and
// differ only in table names, parent column and fetch sizes.
type messageScope struct {
	table     string
	reactions string
	parent    string
	// extra columns loaded with the history only.
	historyExtra string

	reactionLimit int
	// latest fetch size is clamp(n*latestPer, latestMin, latestMax) for n parents.
	latestPer, latestMin, latestMax int
}

var (
	dmScope = messageScope{
		table: "dm_messages", reactions: "dm_message_reactions", parent: "conversation_id",
		historyExtra:  "read_by_receiver_at",
		reactionLimit: 2000,
		latestPer:     5, latestMin: 50, latestMax: 200,
	}
	groupScope = messageScope{
		table: "group_chat_messages", reactions: "group_chat_message_reactions", parent: "group_chat_id",
		reactionLimit: 3000,
		latestPer:     6, latestMin: 60, latestMax: 260,
	}
	glytchScope = messageScope{
		table: "glytch_messages", reactions: "glytch_message_reactions", parent: "glytch_channel_id",
		reactionLimit: 5000,
		latestPer:     6, latestMin: 60, latestMax: 320,
	}
)

func (sc messageScope) columns(history bool) string {
	cols := fmt.Sprintf(messageColumns, sc.parent)
	if history && sc.historyExtra != "" {
		cols += "," + sc.historyExtra
	}
	return cols
}

// messageStore implements the operations shared by all scopes.
type messageStore struct {
	base
	scope messageScope
	now   func() time.Time
}

func newMessageStore(b base, scope messageScope) messageStore {
	return messageStore{base: b, scope: scope, now: time.Now}
}

// history returns the most recent messages of parentID in chronological
// order.
func (m messageStore) history(ctx context.Context, accessToken string, parentID int64) ([]models.Message, error) {
	var rows []models.Message
	q := query(
		"select", m.scope.columns(true),
		m.scope.parent, eq(parentID),
		"order", "id.desc",
		"limit", strconv.Itoa(historyLimit),
	)
	if err := client.Select(ctx, m.client, accessToken, m.scope.table, q, &rows); err != nil {
		return nil, err
	}
	return reverse(rows), nil
}

// latest returns recent messages across several parents, newest first, for
// list previews.
func (m messageStore) latest(ctx context.Context, accessToken string, parentIDs []int64) ([]models.Message, error) {
	ids := uniquePositive(parentIDs)
	if len(ids) == 0 {
		return []models.Message{}, nil
	}
	limit := clamp(len(ids)*m.scope.latestPer, m.scope.latestMin, m.scope.latestMax)
	var rows []models.Message
	q := query(
		"select", m.scope.columns(false),
		m.scope.parent, inList(ids),
		"order", "id.desc",
		"limit", strconv.Itoa(limit),
	)
	err := client.Select(ctx, m.client, accessToken, m.scope.table, q, &rows)
	return rows, err
}

func (m messageStore) create(ctx context.Context, accessToken, senderID string, parentID int64, content string, att *models.Attachment) ([]models.Message, error) {
	row := map[string]any{
		m.scope.parent:    parentID,
		"sender_id":       senderID,
		"content":         content,
		"attachment_url":  nil,
		"attachment_type": nil,
	}
	if att != nil {
		row["attachment_url"] = att.URL
		row["attachment_type"] = att.Type
	}
	var rows []models.Message
	err := client.Insert(ctx, m.client, accessToken, m.scope.table, []map[string]any{row}, &rows)
	return rows, err
}

func (m messageStore) update(ctx context.Context, accessToken string, messageID int64, content string) ([]models.Message, error) {
	body := map[string]any{
		"content":   content,
		"edited_at": m.now().UTC().Format(time.RFC3339Nano),
	}
	var rows []models.Message
	err := client.Update(ctx, m.client, accessToken, m.scope.table, query("id", eq(messageID)), body, &rows)
	return rows, err
}

func (m messageStore) delete(ctx context.Context, accessToken string, messageID int64) error {
	return client.Delete(ctx, m.client, accessToken, m.scope.table, query("id", eq(messageID)), "", nil)
}

func (m messageStore) reactions(ctx context.Context, accessToken string, messageIDs []int64) ([]models.Reaction, error) {
	ids := uniquePositive(messageIDs)
	if len(ids) == 0 {
		return []models.Reaction{}, nil
	}
	var rows []models.Reaction
	q := query(
		"select", "message_id,user_id,emoji,created_at",
		"message_id", inList(ids),
		"order", "created_at.asc",
		"limit", strconv.Itoa(m.scope.reactionLimit),
	)
	err := client.Select(ctx, m.client, accessToken, m.scope.reactions, q, &rows)
	return rows, err
}

// addReaction merges on (message, user, emoji), so reacting twice with the
// same emoji leaves a single row.
func (m messageStore) addReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) ([]models.Reaction, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, invalidArg("emoji is required")
	}
	body := []map[string]any{{"message_id": messageID, "user_id": userID, "emoji": emoji}}
	var rows []models.Reaction
	err := client.Upsert(ctx, m.client, accessToken, m.scope.reactions,
		query("on_conflict", "message_id,user_id,emoji"), body, &rows)
	return rows, err
}

func (m messageStore) deleteReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) error {
	q := query(
		"message_id", eq(messageID),
		"user_id", eq(userID),
		"emoji", eq(strings.TrimSpace(emoji)),
	)
	return client.Delete(ctx, m.client, accessToken, m.scope.reactions, q, "", nil)
}
