package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

const (
	profileColumns = "user_id,email,display_name,username,avatar_url,banner_url,bio,profile_theme,presence_status,presence_updated_at,current_game,current_game_updated_at"

	defaultCommentLimit = 120
	maxCommentLimit     = 200

	msgProfileCommentsMigration = "Profile comments require the latest database migration."
)

// ProfileService manages user profiles and profile comments.
type ProfileService interface {
	GetMyProfile(ctx context.Context, accessToken, userID string) (*models.Profile, error)
	UpsertMyProfile(ctx context.Context, accessToken, userID, email, displayName, username string) ([]models.Profile, error)
	FindProfileByUsername(ctx context.Context, accessToken, username string) (*models.Profile, error)
	FetchProfilesByIDs(ctx context.Context, accessToken string, userIDs []string) ([]models.Profile, error)
	UpdateMyProfileCustomization(ctx context.Context, accessToken, userID string, updates models.ProfileCustomization) ([]models.Profile, error)
	UpdateMyPresence(ctx context.Context, accessToken, userID, status string) ([]models.Profile, error)

	ListProfileComments(ctx context.Context, accessToken, profileUserID string, limit int) ([]models.ProfileComment, error)
	CreateProfileComment(ctx context.Context, accessToken, profileUserID, content string) ([]models.ProfileComment, error)
	DeleteProfileComment(ctx context.Context, accessToken string, commentID int64) error
}

type profileService struct {
	base
	now func() time.Time
}

func NewProfileService(c client.Client, log logging.Logger) ProfileService {
	return &profileService{base: newBase(c, log), now: time.Now}
}

func (s *profileService) GetMyProfile(ctx context.Context, accessToken, userID string) (*models.Profile, error) {
	var rows []models.Profile
	q := query("select", profileColumns, "user_id", eq(userID), "limit", "1")
	if err := client.Select(ctx, s.client, accessToken, "profiles", q, &rows); err != nil {
		return nil, err
	}
	return first(rows), nil
}

// UpsertMyProfile creates or merges the caller's profile row. Email and
// username are stored lower-cased.
func (s *profileService) UpsertMyProfile(ctx context.Context, accessToken, userID, email, displayName, username string) ([]models.Profile, error) {
	var rows []models.Profile
	body := []map[string]any{{
		"user_id":      userID,
		"email":        strings.ToLower(email),
		"display_name": displayName,
		"username":     strings.ToLower(username),
	}}
	err := client.Upsert(ctx, s.client, accessToken, "profiles", nil, body, &rows)
	return rows, err
}

// FindProfileByUsername accepts handles as typed by users ("@Name#1234").
func (s *profileService) FindProfileByUsername(ctx context.Context, accessToken, username string) (*models.Profile, error) {
	var rows []models.Profile
	err := client.RPC(ctx, s.client, accessToken, "find_public_profile_by_username",
		map[string]any{"p_username": models.NormalizeUsernameQuery(username)}, &rows)
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

func (s *profileService) FetchProfilesByIDs(ctx context.Context, accessToken string, userIDs []string) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return []models.Profile{}, nil
	}
	var rows []models.Profile
	err := client.RPC(ctx, s.client, accessToken, "list_public_profiles_by_ids",
		map[string]any{"p_user_ids": userIDs}, &rows)
	return rows, err
}

func (s *profileService) UpdateMyProfileCustomization(ctx context.Context, accessToken, userID string, updates models.ProfileCustomization) ([]models.Profile, error) {
	var rows []models.Profile
	err := client.Update(ctx, s.client, accessToken, "profiles", query("user_id", eq(userID)), updates, &rows)
	return rows, err
}

// UpdateMyPresence always bumps presence_updated_at; the status is written
// only when it is a known presence value.
func (s *profileService) UpdateMyPresence(ctx context.Context, accessToken, userID, status string) ([]models.Profile, error) {
	body := map[string]any{"presence_updated_at": s.now().UTC().Format(time.RFC3339Nano)}
	if p, ok := models.ParsePresenceStatus(status); ok {
		body["presence_status"] = p
	}
	var rows []models.Profile
	err := client.Update(ctx, s.client, accessToken, "profiles", query("user_id", eq(userID)), body, &rows)
	return rows, err
}

// ListProfileComments returns up to limit comments, oldest first. A limit
// of zero or less means the default. Backends without comment support yield
// an empty list.
func (s *profileService) ListProfileComments(ctx context.Context, accessToken, profileUserID string, limit int) ([]models.ProfileComment, error) {
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	limit = clamp(limit, 1, maxCommentLimit)

	return compat(ctx, s.base, "ListProfileComments", func(ctx context.Context) ([]models.ProfileComment, error) {
		var rows []models.ProfileComment
		q := query(
			"select", "id,profile_user_id,author_user_id,content,created_at",
			"profile_user_id", eq(profileUserID),
			"order", "created_at.asc",
			"limit", strconv.Itoa(limit),
		)
		err := client.Select(ctx, s.client, accessToken, "profile_comments", q, &rows)
		return rows, err
	}, schemacompat.MissingProfileComments, schemacompat.Default([]models.ProfileComment{}))
}

func (s *profileService) CreateProfileComment(ctx context.Context, accessToken, profileUserID, content string) ([]models.ProfileComment, error) {
	return compat(ctx, s.base, "CreateProfileComment", func(ctx context.Context) ([]models.ProfileComment, error) {
		var rows []models.ProfileComment
		body := []map[string]any{{"profile_user_id": profileUserID, "content": content}}
		err := client.Insert(ctx, s.client, accessToken, "profile_comments", body, &rows)
		return rows, err
	}, schemacompat.MissingProfileComments, schemacompat.RequireMigration[[]models.ProfileComment](msgProfileCommentsMigration))
}

func (s *profileService) DeleteProfileComment(ctx context.Context, accessToken string, commentID int64) error {
	_, err := compat(ctx, s.base, "DeleteProfileComment", func(ctx context.Context) (struct{}, error) {
		err := client.Delete(ctx, s.client, accessToken, "profile_comments", query("id", eq(commentID)), common.PreferMinimal, nil)
		return struct{}{}, err
	}, schemacompat.MissingProfileComments, schemacompat.RequireMigration[struct{}](msgProfileCommentsMigration))
	return err
}
