package services

import (
	"context"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

// AcceptedFriendRequest names the DM conversation opened by accepting.
type AcceptedFriendRequest struct {
	ConversationID int64 `json:"conversation_id"`
}

// UnfriendResult reports what unfriending removed.
type UnfriendResult struct {
	RemovedConversation bool `json:"removed_conversation"`
	RemovedRequests     int  `json:"removed_requests"`
}

// FriendService manages friend requests and friendships.
type FriendService interface {
	SendFriendRequest(ctx context.Context, accessToken, senderID, receiverID string) ([]models.FriendRequest, error)
	ListFriendRequests(ctx context.Context, accessToken string) ([]models.FriendRequest, error)
	RespondToFriendRequest(ctx context.Context, accessToken string, requestID int64, status models.FriendRequestStatus) ([]models.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, accessToken string, requestID int64) (*AcceptedFriendRequest, error)
	UnfriendUser(ctx context.Context, accessToken, userID string) (*UnfriendResult, error)
}

type friendService struct {
	base
}

func NewFriendService(c client.Client, log logging.Logger) FriendService {
	return &friendService{base: newBase(c, log)}
}

func (s *friendService) SendFriendRequest(ctx context.Context, accessToken, senderID, receiverID string) ([]models.FriendRequest, error) {
	var rows []models.FriendRequest
	body := []map[string]any{{"sender_id": senderID, "receiver_id": receiverID}}
	err := client.Insert(ctx, s.client, accessToken, "friend_requests", body, &rows)
	return rows, err
}

// ListFriendRequests returns requests visible to the caller, newest first.
func (s *friendService) ListFriendRequests(ctx context.Context, accessToken string) ([]models.FriendRequest, error) {
	var rows []models.FriendRequest
	q := query("select", "id,sender_id,receiver_id,status,created_at", "order", "created_at.desc")
	err := client.Select(ctx, s.client, accessToken, "friend_requests", q, &rows)
	return rows, err
}

func (s *friendService) RespondToFriendRequest(ctx context.Context, accessToken string, requestID int64, status models.FriendRequestStatus) ([]models.FriendRequest, error) {
	if status != models.FriendRequestAccepted && status != models.FriendRequestRejected {
		return nil, invalidArg("friend request status %q", status)
	}
	var rows []models.FriendRequest
	err := client.Update(ctx, s.client, accessToken, "friend_requests", query("id", eq(requestID)),
		map[string]any{"status": status}, &rows)
	return rows, err
}

// AcceptFriendRequest accepts through the backend procedure, which also
// opens the DM conversation.
func (s *friendService) AcceptFriendRequest(ctx context.Context, accessToken string, requestID int64) (*AcceptedFriendRequest, error) {
	var res AcceptedFriendRequest
	if err := client.RPC(ctx, s.client, accessToken, "accept_friend_request", map[string]any{"p_request_id": requestID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *friendService) UnfriendUser(ctx context.Context, accessToken, userID string) (*UnfriendResult, error) {
	var res UnfriendResult
	if err := client.RPC(ctx, s.client, accessToken, "unfriend_user", map[string]any{"p_user_id": userID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
