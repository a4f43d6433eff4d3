// Package services contains the domain operations of the Glytch client:
// accounts, profiles, friends, direct messages, group chats, Glytches,
// moderation, voice and media. Each service is an interface backed by an
// unexported struct that talks to the backend through a client.Client.
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

// base is embedded by every service.
type base struct {
	client client.Client
	log    logging.Logger
}

func newBase(c client.Client, log logging.Logger) base {
	if log == nil {
		log = logging.Discard()
	}
	return base{client: c, log: log}
}

// compat runs primary and hands a failure matching the schema predicate to
// fallback, logging the downgrade.
func compat[T any](ctx context.Context, b base, op string, primary func(ctx context.Context) (T, error), match schemacompat.Predicate, fallback schemacompat.Fallback[T]) (T, error) {
	return schemacompat.Do(ctx, primary, match, func(ctx context.Context, cause error) (T, error) {
		b.log.Debug(ctx, "schema fallback", "op", op, "features", schemacompat.Classify(cause.Error()), "error", cause)
		return fallback(ctx, cause)
	})
}

// query builds PostgREST query parameters from key/value pairs.
func query(kv ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return q
}

func eq[T int64 | int | string | bool](v T) string {
	return fmt.Sprintf("eq.%v", v)
}

func inList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "in.(" + strings.Join(parts, ",") + ")"
}

// uniquePositive drops non-positive ids and duplicates, keeping order.
func uniquePositive(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// uniqueStrings trims, drops empty values and duplicates, keeping order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func clamp(v, lo, hi int) int {
	return min(hi, max(lo, v))
}

// nullable returns nil for an empty string so it encodes as JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func first[T any](rows []T) *T {
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

func reverse[T any](rows []T) []T {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
