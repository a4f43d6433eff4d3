package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

type GifResult struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	PreviewURL  string `json:"previewUrl"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Description string `json:"description"`
}

// GifPage is one page of search results. Next is the offset of the
// following page, or "" on the last page.
type GifPage struct {
	Results []GifResult `json:"results"`
	Next    string      `json:"next,omitempty"`
}

const defaultGifDescription = "GIF"

// DecodeGifPage reads a provider search response. Items come either in
// the flat form (url, previewUrl, width, height, description) or in the
// provider's rendition form under "images"; items without a usable URL are
// dropped.
func DecodeGifPage(raw []byte) GifPage {
	var row map[string]json.RawMessage
	_ = json.Unmarshal(raw, &row)

	var items []json.RawMessage
	if json.Unmarshal(row["data"], &items) != nil {
		_ = json.Unmarshal(row["results"], &items)
	}

	page := GifPage{Results: []GifResult{}}
	for _, item := range items {
		if g, ok := decodeGif(item); ok {
			page.Results = append(page.Results, g)
		}
	}

	var pg map[string]json.RawMessage
	_ = json.Unmarshal(row["pagination"], &pg)
	offset, _ := rawNumber(pg["offset"])
	count, ok := rawNumber(pg["count"])
	if !ok {
		count = float64(len(page.Results))
	}
	total, ok := rawNumber(pg["total_count"])
	if !ok {
		total = count
	}
	if offset+count < total {
		page.Next = strconv.FormatFloat(offset+count, 'f', -1, 64)
	}
	return page
}

func decodeGif(raw json.RawMessage) (GifResult, bool) {
	var entry map[string]json.RawMessage
	if json.Unmarshal(raw, &entry) != nil || entry == nil {
		return GifResult{}, false
	}
	id, _ := rawString(entry["id"])

	direct, ok := rawString(entry["url"])
	if !ok {
		direct, _ = rawString(entry["gifUrl"])
	}
	if direct = strings.TrimSpace(direct); direct != "" {
		preview, _ := rawString(entry["previewUrl"])
		desc, ok := rawString(entry["description"])
		if !ok {
			if desc, ok = rawString(entry["title"]); !ok {
				desc = defaultGifDescription
			}
		}
		g := GifResult{
			ID:          id,
			URL:         direct,
			PreviewURL:  strings.TrimSpace(preview),
			Width:       dimension(entry["width"]),
			Height:      dimension(entry["height"]),
			Description: strings.TrimSpace(desc),
		}
		if g.ID == "" {
			g.ID = direct
		}
		if g.PreviewURL == "" {
			g.PreviewURL = direct
		}
		if g.Description == "" {
			g.Description = defaultGifDescription
		}
		return g, true
	}

	var images map[string]json.RawMessage
	_ = json.Unmarshal(entry["images"], &images)
	rendition := func(name string) map[string]json.RawMessage {
		var r map[string]json.RawMessage
		_ = json.Unmarshal(images[name], &r)
		return r
	}
	original := rendition("original")
	downsized := rendition("downsized")
	fixed := rendition("fixed_width")
	fixedSmall := rendition("fixed_width_small")

	url := firstURL(original, downsized, fixed, fixedSmall)
	if url == "" {
		return GifResult{}, false
	}
	preview := firstURL(fixedSmall, fixed, downsized, original)
	if preview == "" {
		preview = url
	}

	g := GifResult{
		ID:          id,
		URL:         url,
		PreviewURL:  preview,
		Width:       dimension(firstPresent("width", original, fixed, fixedSmall)),
		Height:      dimension(firstPresent("height", original, fixed, fixedSmall)),
		Description: defaultGifDescription,
	}
	if g.ID == "" {
		g.ID = url
	}
	if title, ok := rawString(entry["title"]); ok && strings.TrimSpace(title) != "" {
		g.Description = title
	}
	return g, true
}

func firstURL(renditions ...map[string]json.RawMessage) string {
	for _, r := range renditions {
		if s, ok := rawString(r["url"]); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstPresent returns the first non-null value of key.
func firstPresent(key string, renditions ...map[string]json.RawMessage) json.RawMessage {
	for _, r := range renditions {
		if v, ok := r[key]; ok && string(v) != "null" {
			return v
		}
	}
	return nil
}

// dimension reads a pixel size given as a number or a numeric string.
func dimension(raw json.RawMessage) int {
	if n, ok := rawNumber(raw); ok {
		return int(n)
	}
	if s, ok := rawString(raw); ok {
		if n, ok := leadingInt(s); ok {
			return n
		}
	}
	return 0
}

func rawNumber(raw json.RawMessage) (float64, bool) {
	var n float64
	if isNull(raw) || json.Unmarshal(raw, &n) != nil {
		return 0, false
	}
	return n, true
}

func giphy(id, slug string, w, h int, desc string) GifResult {
	u := "https://media.giphy.com/media/" + slug + "/giphy.gif"
	return GifResult{ID: id, URL: u, PreviewURL: u, Width: w, Height: h, Description: desc}
}

var fallbackGifs = []GifResult{
	giphy("fallback-happy", "3oEjI6SIIHBdRxXI40", 480, 270, "Happy"),
	giphy("fallback-celebrate", "l0MYt5jPR6QX5pnqM", 480, 270, "Celebrate"),
	giphy("fallback-thumbs-up", "111ebonMs90YLu", 400, 225, "Thumbs up"),
	giphy("fallback-wow", "5VKbvrjxpVJCM", 400, 225, "Wow"),
	giphy("fallback-lol", "10JhviFuU2gWD6", 500, 281, "Laugh"),
	giphy("fallback-clap", "26u4lOMA8JKSnL9Uk", 480, 270, "Clap"),
	giphy("fallback-hello", "xT9IgG50Fb7Mi0prBC", 480, 270, "Hello"),
	giphy("fallback-facepalm", "3og0INyCmHlNylks9O", 480, 270, "Facepalm"),
	giphy("fallback-shrug", "3o7btNRptqBgLSKR2w", 480, 270, "Shrug"),
	giphy("fallback-hype", "9D8EF3Qjw7ieVX0ccG", 480, 270, "Hype"),
}

// FallbackGifs searches the built-in library by description. When nothing
// matches the whole library is used; at least one result is returned.
func FallbackGifs(query string, limit int) GifPage {
	q := strings.ToLower(strings.TrimSpace(query))
	var matched []GifResult
	for _, g := range fallbackGifs {
		if q == "" || strings.Contains(strings.ToLower(g.Description), q) {
			matched = append(matched, g)
		}
	}
	if len(matched) == 0 {
		matched = fallbackGifs
	}
	limit = max(1, limit)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return GifPage{Results: append([]GifResult(nil), matched...)}
}
