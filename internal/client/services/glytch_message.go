package services

import (
	"context"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

// GlytchMessageService covers messages and reactions in Glytch text
// channels. It behaves like the DM and group variants.
type GlytchMessageService interface {
	FetchGlytchMessages(ctx context.Context, accessToken string, channelID int64) ([]models.Message, error)
	FetchLatestGlytchMessages(ctx context.Context, accessToken string, channelIDs []int64) ([]models.Message, error)
	CreateGlytchMessage(ctx context.Context, accessToken, senderID string, channelID int64, content string, att *models.Attachment) ([]models.Message, error)
	UpdateGlytchMessage(ctx context.Context, accessToken string, messageID int64, content string) ([]models.Message, error)

	ListGlytchMessageReactions(ctx context.Context, accessToken string, messageIDs []int64) ([]models.Reaction, error)
	AddGlytchMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) ([]models.Reaction, error)
	DeleteGlytchMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) error
}

type glytchMessageService struct {
	msgs messageStore
}

func NewGlytchMessageService(c client.Client, log logging.Logger) GlytchMessageService {
	return &glytchMessageService{msgs: newMessageStore(newBase(c, log), glytchScope)}
}

func (s *glytchMessageService) FetchGlytchMessages(ctx context.Context, accessToken string, channelID int64) ([]models.Message, error) {
	return s.msgs.history(ctx, accessToken, channelID)
}

func (s *glytchMessageService) FetchLatestGlytchMessages(ctx context.Context, accessToken string, channelIDs []int64) ([]models.Message, error) {
	return s.msgs.latest(ctx, accessToken, channelIDs)
}

func (s *glytchMessageService) CreateGlytchMessage(ctx context.Context, accessToken, senderID string, channelID int64, content string, att *models.Attachment) ([]models.Message, error) {
	return s.msgs.create(ctx, accessToken, senderID, channelID, content, att)
}

func (s *glytchMessageService) UpdateGlytchMessage(ctx context.Context, accessToken string, messageID int64, content string) ([]models.Message, error) {
	return s.msgs.update(ctx, accessToken, messageID, content)
}

func (s *glytchMessageService) ListGlytchMessageReactions(ctx context.Context, accessToken string, messageIDs []int64) ([]models.Reaction, error) {
	return s.msgs.reactions(ctx, accessToken, messageIDs)
}

func (s *glytchMessageService) AddGlytchMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) ([]models.Reaction, error) {
	return s.msgs.addReaction(ctx, accessToken, messageID, userID, emoji)
}

func (s *glytchMessageService) DeleteGlytchMessageReaction(ctx context.Context, accessToken string, messageID int64, userID, emoji string) error {
	return s.msgs.deleteReaction(ctx, accessToken, messageID, userID, emoji)
}
