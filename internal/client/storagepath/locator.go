package storagepath

import (
	"errors"
	"strings"
)

// ErrNoStorageBase is returned when an absolute storage URL is needed but no
// public storage origin is configured.
var ErrNoStorageBase = errors.New("storage base URL is not configured")

// Locator turns canonical object paths and relative references into
// absolute URLs for one bucket.
type Locator struct {
	*Normalizer

	apiBase     string
	storageBase string
	publicMarks []string
}

// NewLocator builds a Locator. apiBase is the backend origin used for
// "/api/..." references; storageBase is the public storage origin.
func NewLocator(apiBase, storageBase, bucket string) *Locator {
	return &Locator{
		Normalizer:  NewNormalizer(bucket),
		apiBase:     strings.TrimRight(apiBase, "/"),
		storageBase: strings.TrimRight(storageBase, "/"),
		publicMarks: []string{
			"/storage/v1/object/public/" + bucket + "/",
			"/api/storage/object/public/" + bucket + "/",
			"/api/supabase/storage/v1/object/public/" + bucket + "/",
		},
	}
}

// PublicURL returns the unsigned public URL of objectPath.
func (l *Locator) PublicURL(objectPath string) (string, error) {
	if l.storageBase == "" {
		return "", ErrNoStorageBase
	}
	return l.storageBase + "/storage/v1/object/public/" + l.bucket + "/" + EncodePath(objectPath), nil
}

// AbsoluteStorageURL joins a storage-relative reference ("/storage/v1/...",
// "/object/...", or any other path) onto the storage origin. Absolute http(s)
// URLs are returned unchanged.
func (l *Locator) AbsoluteStorageURL(pathOrURL string) (string, error) {
	if isHTTPURL(pathOrURL) {
		return pathOrURL, nil
	}
	if l.storageBase == "" {
		return "", ErrNoStorageBase
	}
	switch {
	case strings.HasPrefix(pathOrURL, "/storage/v1/"):
		return l.storageBase + pathOrURL, nil
	case strings.HasPrefix(pathOrURL, "/object/"):
		return l.storageBase + "/storage/v1" + pathOrURL, nil
	case strings.HasPrefix(pathOrURL, "/"):
		return l.storageBase + pathOrURL, nil
	default:
		return l.storageBase + "/" + pathOrURL, nil
	}
}

// Absolutize makes a display candidate absolute where possible: http(s)
// URLs pass through, "/api/..." is joined to the backend origin, storage
// paths to the storage origin. Anything else is returned trimmed.
func (l *Locator) Absolutize(pathOrURL string) string {
	p := strings.TrimSpace(pathOrURL)
	switch {
	case p == "", isHTTPURL(p):
		return p
	case strings.HasPrefix(p, "/api/"):
		if l.apiBase == "" {
			return p
		}
		return l.apiBase + p
	case strings.HasPrefix(p, "/storage/v1/"), strings.HasPrefix(p, "/object/"):
		abs, err := l.AbsoluteStorageURL(p)
		if err != nil {
			return p
		}
		return abs
	default:
		return p
	}
}

// LooksPublic reports whether ref is an absolute URL that already points at
// a public (unsigned) object in the bucket.
func (l *Locator) LooksPublic(ref string) bool {
	if !isHTTPURL(ref) {
		return false
	}
	for _, mark := range l.publicMarks {
		if strings.Contains(ref, mark) {
			return true
		}
	}
	return false
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
