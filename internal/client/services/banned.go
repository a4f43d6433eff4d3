package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/common"
)

const bannedHint = "GLYTCH_BANNED"

var glytchIDFragment = regexp.MustCompile(`(?i)glytch_id["'\s:=]+(\d+)`)

// BannedError reports a join rejected because the caller is banned.
// GlytchID is zero when the backend did not say which Glytch it was.
type BannedError struct {
	Message  string
	GlytchID int64
	Cause    error
}

func (e *BannedError) Error() string { return e.Message }

func (e *BannedError) Unwrap() error { return e.Cause }

// Is matches common.ErrBanned.
func (e *BannedError) Is(target error) bool {
	return target == common.ErrBanned
}

// asBanned converts a join failure into a *BannedError when the backend
// flags a ban through the hint or the message text.
func asBanned(err error) error {
	apiErr, ok := client.AsAPIError(err)
	if !ok {
		return err
	}
	hinted := strings.ToUpper(strings.TrimSpace(apiErr.Hint)) == bannedHint
	if !hinted && !strings.Contains(strings.ToLower(apiErr.Message), "banned from this glytch") {
		return err
	}
	return &BannedError{
		Message:  apiErr.Message,
		GlytchID: glytchIDFromDetails(apiErr.Details),
		Cause:    err,
	}
}

// glytchIDFromDetails accepts the id as a number, a numeric string, a JSON
// document or object with glytch_id, or a "glytch_id: N" text fragment.
func glytchIDFromDetails(details json.RawMessage) int64 {
	if len(details) == 0 {
		return 0
	}
	var n float64
	if json.Unmarshal(details, &n) == nil {
		return max(0, int64(n))
	}

	var text string
	if json.Unmarshal(details, &text) == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			return 0
		}
		if id, ok := models.ParseID(json.RawMessage(strconv.Quote(text))); ok {
			return id
		}
		var doc any
		if json.Unmarshal([]byte(text), &doc) == nil {
			return idFromObject(doc)
		}
		if m := glytchIDFragment.FindStringSubmatch(text); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil && id > 0 {
				return id
			}
		}
		return 0
	}

	var doc any
	if json.Unmarshal(details, &doc) == nil {
		return idFromObject(doc)
	}
	return 0
}

func idFromObject(doc any) int64 {
	obj, ok := doc.(map[string]any)
	if !ok {
		return 0
	}
	raw, err := json.Marshal(obj["glytch_id"])
	if err != nil {
		return 0
	}
	id, _ := models.ParseID(raw)
	return id
}
