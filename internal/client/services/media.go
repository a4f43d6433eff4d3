package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/glytch/internal/client/attachments"
	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/storagepath"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

const (
	defaultGifLimit = 20
	maxGifLimit     = 50
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// ProfileAssetKind names the profile image being replaced.
type ProfileAssetKind string

const (
	ProfileAvatar ProfileAssetKind = "avatar"
	ProfileBanner ProfileAssetKind = "banner"
	ProfileTheme  ProfileAssetKind = "theme"
)

// MessageContext is the kind of conversation an attachment belongs to.
type MessageContext string

const (
	ContextDM     MessageContext = "dm"
	ContextGroup  MessageContext = "group"
	ContextGlytch MessageContext = "glytch"
)

// Upload is a file to store. An empty ContentType is sent as
// application/octet-stream.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// MediaService uploads images, resolves attachment references to
// displayable URLs and searches GIFs.
//
// Contract:
//   - Message attachments are returned as canonical object paths
//     ("dm/12/<user>/<ms>-<name>"), which is what messages store.
//   - SearchGifs never fails; provider errors and empty results fall back
//     to a built-in library.
type MediaService interface {
	UploadProfileAsset(ctx context.Context, accessToken, userID string, kind ProfileAssetKind, file Upload) (string, error)
	UploadGlytchIcon(ctx context.Context, accessToken, userID string, glytchID int64, file Upload) (string, error)
	UploadMessageAsset(ctx context.Context, accessToken, userID string, mc MessageContext, contextID int64, file Upload) (*models.Attachment, error)
	IngestRemoteMessageAsset(ctx context.Context, accessToken string, mc MessageContext, contextID int64, sourceURL string) (*models.Attachment, error)

	ResolveMessageAttachmentURL(ctx context.Context, accessToken, ref string) (string, bool)
	ResolveMessageAttachments(ctx context.Context, accessToken string, refs []string) []string
	ClearAttachmentCache()

	SearchGifs(ctx context.Context, search string, limit int) models.GifPage
}

type mediaService struct {
	base
	locator  *storagepath.Locator
	resolver *attachments.Resolver
	now      func() time.Time
}

// NewMediaService uses locator to recognize message attachment paths and
// resolver to turn them into URLs. Both must point at the message bucket.
func NewMediaService(c client.Client, locator *storagepath.Locator, resolver *attachments.Resolver, log logging.Logger) MediaService {
	return &mediaService{
		base:     newBase(c, log),
		locator:  locator,
		resolver: resolver,
		now:      time.Now,
	}
}

func safeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}

func (s *mediaService) stamp() string {
	return strconv.FormatInt(s.now().UnixMilli(), 10)
}

// upload posts file to a backend media route and returns the decoded reply.
func (s *mediaService) upload(ctx context.Context, accessToken, route, objectPath string, q url.Values, file Upload, failure string) (map[string]json.RawMessage, error) {
	if file.Body == nil {
		return nil, invalidArg("upload has no content")
	}
	contentType := strings.TrimSpace(file.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	var resp map[string]json.RawMessage
	err := s.client.Do(ctx, client.Request{
		Method:         http.MethodPost,
		Path:           route + storagepath.EncodePath(objectPath),
		Query:          q,
		Direct:         true,
		RawBody:        file.Body,
		ContentType:    contentType,
		AccessToken:    accessToken,
		FailureMessage: failure,
	}, &resp)
	if err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "media uploaded", "route", route, "path", objectPath)
	return resp, nil
}

// textField returns the trimmed string value of key, or "".
func textField(resp map[string]json.RawMessage, key string) string {
	var v string
	if json.Unmarshal(resp[key], &v) != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func (s *mediaService) UploadProfileAsset(ctx context.Context, accessToken, userID string, kind ProfileAssetKind, file Upload) (string, error) {
	switch kind {
	case ProfileAvatar, ProfileBanner, ProfileTheme:
	default:
		return "", invalidArg("profile asset kind %q", kind)
	}
	objectPath := fmt.Sprintf("%s/%s-%s-%s", userID, kind, s.stamp(), safeFileName(file.Name))
	resp, err := s.upload(ctx, accessToken, "/api/media/profile-upload/", objectPath,
		query("kind", string(kind)), file, "Could not upload image.")
	if err != nil {
		return "", err
	}
	if u := textField(resp, "url"); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("%w: profile upload succeeded but no URL was returned", common.ErrUnexpectedResponse)
}

func (s *mediaService) UploadGlytchIcon(ctx context.Context, accessToken, userID string, glytchID int64, file Upload) (string, error) {
	objectPath := fmt.Sprintf("%s/%d/icon-%s-%s", userID, glytchID, s.stamp(), safeFileName(file.Name))
	resp, err := s.upload(ctx, accessToken, "/api/media/glytch-icon-upload/", objectPath,
		query("glytchId", strconv.FormatInt(glytchID, 10)), file, "Could not upload image.")
	if err != nil {
		return "", err
	}
	if u := textField(resp, "url"); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("%w: glytch icon upload succeeded but no URL was returned", common.ErrUnexpectedResponse)
}

func checkContext(mc MessageContext, contextID int64) error {
	switch mc {
	case ContextDM, ContextGroup, ContextGlytch:
	default:
		return invalidArg("message context %q", mc)
	}
	if contextID <= 0 {
		return invalidArg("message context id %d", contextID)
	}
	return nil
}

func contextQuery(mc MessageContext, contextID int64) url.Values {
	return query("context", string(mc), "contextId", strconv.FormatInt(contextID, 10))
}

// UploadMessageAsset stores an attachment for a message in the given
// conversation. The backend may move the object or reclassify it; its
// answer wins over the local path and content type.
func (s *mediaService) UploadMessageAsset(ctx context.Context, accessToken, userID string, mc MessageContext, contextID int64, file Upload) (*models.Attachment, error) {
	if err := checkContext(mc, contextID); err != nil {
		return nil, err
	}
	objectPath := fmt.Sprintf("%s/%d/%s/%s-%s", mc, contextID, userID, s.stamp(), safeFileName(file.Name))
	resp, err := s.upload(ctx, accessToken, "/api/media/message-upload/", objectPath,
		contextQuery(mc, contextID), file, "Could not upload attachment.")
	if err != nil {
		return nil, err
	}

	approved := textField(resp, "objectPath")
	if approved == "" {
		approved = objectPath
	}
	path, ok := s.locator.ObjectPath(approved)
	if !ok {
		path, ok = s.locator.ObjectPath(textField(resp, "url"))
	}
	if !ok {
		path = objectPath
	}

	kind := models.AttachmentImage
	if strings.EqualFold(strings.TrimSpace(file.ContentType), "image/gif") {
		kind = models.AttachmentGIF
	}
	if t, ok := models.ParseAttachmentType(textField(resp, "attachmentType")); ok {
		kind = t
	}
	return &models.Attachment{URL: path, Type: kind}, nil
}

// IngestRemoteMessageAsset has the backend fetch and moderate a remote
// image, for example a GIF picked from search, and store it as an
// attachment.
func (s *mediaService) IngestRemoteMessageAsset(ctx context.Context, accessToken string, mc MessageContext, contextID int64, sourceURL string) (*models.Attachment, error) {
	if err := checkContext(mc, contextID); err != nil {
		return nil, err
	}
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, invalidArg("media URL is required")
	}

	var resp map[string]json.RawMessage
	err := s.client.Do(ctx, client.Request{
		Method:         http.MethodPost,
		Path:           "/api/media/message-ingest",
		Query:          contextQuery(mc, contextID),
		Direct:         true,
		Body:           map[string]string{"sourceUrl": sourceURL},
		AccessToken:    accessToken,
		FailureMessage: "Could not process remote media.",
	}, &resp)
	if err != nil {
		return nil, err
	}

	approved := textField(resp, "objectPath")
	if approved == "" {
		return nil, fmt.Errorf("%w: remote media upload did not return a storage path", common.ErrUnexpectedResponse)
	}
	path, ok := s.locator.ObjectPath(approved)
	if !ok {
		path, ok = s.locator.ObjectPath(textField(resp, "url"))
	}
	if !ok {
		return nil, fmt.Errorf("%w: remote media upload returned an unusable storage path", common.ErrUnexpectedResponse)
	}

	kind := models.AttachmentImage
	if textField(resp, "attachmentType") == string(models.AttachmentGIF) {
		kind = models.AttachmentGIF
	}
	return &models.Attachment{URL: path, Type: kind}, nil
}

func (s *mediaService) ResolveMessageAttachmentURL(ctx context.Context, accessToken, ref string) (string, bool) {
	return s.resolver.Resolve(ctx, accessToken, ref)
}

func (s *mediaService) ResolveMessageAttachments(ctx context.Context, accessToken string, refs []string) []string {
	return s.resolver.ResolveAll(ctx, accessToken, refs)
}

func (s *mediaService) ClearAttachmentCache() {
	s.resolver.Clear()
}

// SearchGifs queries the GIF provider through the backend. The search is
// unauthenticated. limit is clamped to 1..50; zero selects 20.
func (s *mediaService) SearchGifs(ctx context.Context, search string, limit int) models.GifPage {
	if limit == 0 {
		limit = defaultGifLimit
	}
	limit = clamp(limit, 1, maxGifLimit)
	search = strings.TrimSpace(search)

	q := query("limit", strconv.Itoa(limit))
	if search != "" {
		q.Set("q", search)
	}
	var raw json.RawMessage
	err := s.client.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           "/api/gifs/search",
		Query:          q,
		Direct:         true,
		FailureMessage: "Could not load GIFs.",
	}, &raw)
	if err != nil {
		s.log.Warn(ctx, "gif search failed, using built-in library", "error", err)
		return models.FallbackGifs(search, limit)
	}
	page := models.DecodeGifPage(raw)
	if len(page.Results) == 0 {
		return models.FallbackGifs(search, limit)
	}
	return page
}
