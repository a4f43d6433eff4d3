package storagepath

import (
	"net/url"
	"regexp"
	"strings"
)

// maxDecodePasses bounds repeated percent-decoding of doubly-encoded paths.
const maxDecodePasses = 3

var (
	contextPrefixes = []string{"dm/", "group/", "glytch/"}
	embeddedPathRe  = regexp.MustCompile(`(?:^|/)((?:dm|group|glytch)/.+)$`)
	mediaPathRe     = regexp.MustCompile(`/api/media/message/(.+)$`)
	uploadPathRe    = regexp.MustCompile(`/api/media/message-upload/(.+)$`)
	mediaQueryRe    = regexp.MustCompile(`/api/media/message(?:-upload)?$`)

	// queryPathKeys are the query parameters proxy URLs use to carry an
	// object path, in lookup order.
	queryPathKeys = []string{"objectPath", "path", "file", "attachment", "attachmentUrl", "url", "src"}
)

// Normalizer recognizes attachment references stored in one bucket.
type Normalizer struct {
	bucket         string
	objectPrefixes []string
	relPrefixes    []string
	urlPrefixes    []string
	bucketPathRe   *regexp.Regexp
}

// NewNormalizer returns a Normalizer for objects stored in bucket.
func NewNormalizer(bucket string) *Normalizer {
	b := bucket + "/"
	storage := []string{
		"storage/v1/object/public/" + b,
		"storage/v1/object/sign/" + b,
		"storage/v1/object/authenticated/" + b,
		"storage/v1/object/" + b,
		"api/storage/object/public/" + b,
		"api/storage/sign/" + b,
		"api/storage/object/authenticated/" + b,
		"api/storage/object/" + b,
		"api/media/message/" + b,
		"api/supabase/storage/v1/object/public/" + b,
		"api/supabase/storage/v1/object/sign/" + b,
		"api/supabase/storage/v1/object/authenticated/" + b,
		"api/supabase/storage/v1/object/" + b,
	}

	n := &Normalizer{
		bucket:         bucket,
		objectPrefixes: append([]string{b}, storage...),
		bucketPathRe:   regexp.MustCompile("/" + regexp.QuoteMeta(bucket) + "/(.+)$"),
	}
	for _, p := range storage {
		n.relPrefixes = append(n.relPrefixes, "/"+p)
		n.urlPrefixes = append(n.urlPrefixes, "/"+p)
		if p == "api/media/message/"+b {
			n.relPrefixes = append(n.relPrefixes, "/api/media/message-upload/")
			n.urlPrefixes = append(n.urlPrefixes,
				"/api/media/message/",
				"/api/media/message-upload/"+b,
				"/api/media/message-upload/",
			)
		}
	}
	return n
}

// Bucket returns the bucket the normalizer was built for.
func (n *Normalizer) Bucket() string {
	return n.bucket
}

// ObjectPath extracts the canonical object path from any supported
// attachment reference. The second result is false when the reference
// does not name an object in the bucket, in which case callers treat it as
// an opaque external URL.
func (n *Normalizer) ObjectPath(ref string) (string, bool) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", false
	}

	if p, ok := n.normalize(trimmed); ok {
		return p, true
	}

	for _, prefix := range n.relPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			if p, ok := n.normalize(trimmed[len(prefix):]); ok {
				return p, true
			}
		}
	}

	if strings.HasPrefix(trimmed, "/api/media/message") {
		if u, err := url.Parse(trimmed); err == nil {
			if p, ok := n.fromQuery(u.Query()); ok {
				return p, true
			}
		}
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	return n.fromURL(u)
}

func (n *Normalizer) fromURL(u *url.URL) (string, bool) {
	query := u.Query()
	if p, ok := n.fromQuery(query); ok {
		return p, true
	}

	raw := u.EscapedPath()
	candidates := []string{raw}
	if decoded := decodeRepeated(raw); decoded != raw {
		candidates = append(candidates, decoded)
	}

	for _, candidate := range candidates {
		for _, prefix := range n.urlPrefixes {
			if strings.HasPrefix(candidate, prefix) {
				if p, ok := n.normalize(candidate[len(prefix):]); ok {
					return p, true
				}
			}
		}
	}

	for _, candidate := range candidates {
		for _, re := range []*regexp.Regexp{n.bucketPathRe, mediaPathRe, uploadPathRe} {
			if m := re.FindStringSubmatch(candidate); m != nil {
				if p, ok := n.normalize(m[1]); ok {
					return p, true
				}
			}
		}
		if mediaQueryRe.MatchString(candidate) {
			if p, ok := n.fromQuery(query); ok {
				return p, true
			}
		}
	}
	return "", false
}

func (n *Normalizer) fromQuery(q url.Values) (string, bool) {
	for _, key := range queryPathKeys {
		if v := q.Get(key); v != "" {
			if p, ok := n.normalize(v); ok {
				return p, true
			}
		}
	}
	return "", false
}

// normalize handles a single path-like candidate: query and fragment are
// dropped, the rest decoded, one known storage prefix stripped, and the
// remainder accepted when it is (or ends with) a context path.
func (n *Normalizer) normalize(raw string) (string, bool) {
	p := stripQueryAndFragment(strings.TrimSpace(raw))
	if p == "" {
		return "", false
	}
	p = strings.TrimLeft(decodeRepeated(p), "/")

	for _, prefix := range n.objectPrefixes {
		if strings.HasPrefix(p, prefix) {
			p = p[len(prefix):]
			break
		}
	}

	if IsCanonical(p) {
		return p, true
	}
	if m := embeddedPathRe.FindStringSubmatch(p); m != nil {
		return m[1], true
	}
	return "", false
}

// IsCanonical reports whether p starts with one of the message contexts.
func IsCanonical(p string) bool {
	for _, prefix := range contextPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func stripQueryAndFragment(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

func decodeRepeated(raw string) string {
	decoded := raw
	for range maxDecodePasses {
		next, err := url.PathUnescape(decoded)
		if err != nil || next == decoded {
			break
		}
		decoded = next
	}
	return decoded
}

// EncodePath escapes every segment of p independently, keeping the
// separators.
func EncodePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
