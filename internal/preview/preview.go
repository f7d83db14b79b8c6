// Package preview fetches link cards (og: metadata, YouTube thumbnails) for
// URLs detected in message text. Fetching is the only networked part of an
// export and is skipped entirely for the text-only variant.
package preview

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	userAgent    = "Mozilla/5.0 (WhatsAppExportTools/1.0)"
	maxMetaBytes = 800 * 1024 // parse at most this much of a page
)

// DefaultMaxImageBytes caps downloaded preview images.
const DefaultMaxImageBytes = 2_500_000

// Card is a fetched preview ready for embedding.
type Card struct {
	URL          string
	Title        string
	Description  string
	ImageDataURL string
}

// Fetcher retrieves and caches link cards.
type Fetcher struct {
	client        *http.Client
	cache         *Cache
	maxImageBytes int64
}

// NewFetcher builds a Fetcher. cache may be nil to disable persistence.
func NewFetcher(cache *Cache, timeout time.Duration, maxImageBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &Fetcher{
		client:        &http.Client{Timeout: timeout},
		cache:         cache,
		maxImageBytes: maxImageBytes,
	}
}

// Fetch returns the card for target, consulting the cache first. A nil card
// with nil error means no preview is available; fetch problems degrade to
// that rather than failing the render.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Card, error) {
	if f.cache != nil {
		if card, err := f.cache.Get(target); err == nil && card != nil {
			return card, nil
		}
	}

	card := f.fetch(ctx, target)
	if card == nil {
		return nil, nil
	}
	if f.cache != nil {
		f.cache.Put(card, time.Now().UTC().Format(time.RFC3339))
	}
	return card, nil
}

func (f *Fetcher) fetch(ctx context.Context, target string) *Card {
	// YouTube always gets a thumbnail card, no page fetch needed
	if vid := youtubeID(target); vid != "" {
		thumb := "https://img.youtube.com/vi/" + vid + "/hqdefault.jpg"
		return &Card{
			URL:          target,
			Title:        "YouTube",
			ImageDataURL: f.imageDataURL(ctx, thumb),
		}
	}

	body, _, err := f.get(ctx, target, maxMetaBytes)
	if err != nil {
		return nil
	}
	meta := parseMeta(string(body))

	card := &Card{
		URL:         target,
		Title:       firstOf(meta, "og:title", "title"),
		Description: firstOf(meta, "og:description", "description"),
	}
	if card.Title == "" {
		card.Title = target
	}
	if img := firstOf(meta, "og:image", "twitter:image"); img != "" {
		card.ImageDataURL = f.imageDataURL(ctx, resolveURL(target, img))
	}
	return card
}

func (f *Fetcher) get(ctx context.Context, target string, limit int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// imageDataURL downloads an image and encodes it inline; "" on any problem
// or when the image is too large to embed.
func (f *Fetcher) imageDataURL(ctx context.Context, imgURL string) string {
	data, ct, err := f.get(ctx, imgURL, f.maxImageBytes+1)
	if err != nil || int64(len(data)) > f.maxImageBytes {
		return ""
	}
	mime := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	if !strings.HasPrefix(mime, "image/") {
		return ""
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var (
	reMetaTag  = regexp.MustCompile(`(?i)<meta\s+[^>]*?>`)
	reMetaAttr = regexp.MustCompile(`(\w+)\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	reTitleTag = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
)

// parseMeta extracts property/name → content pairs from meta tags, plus a
// <title> fallback under the "title" key.
func parseMeta(page string) map[string]string {
	out := make(map[string]string)
	for _, tag := range reMetaTag.FindAllString(page, -1) {
		attrs := make(map[string]string)
		for _, m := range reMetaAttr.FindAllStringSubmatch(tag, -1) {
			v := strings.Trim(m[2], `"'`)
			attrs[strings.ToLower(m[1])] = v
		}
		key := attrs["property"]
		if key == "" {
			key = attrs["name"]
		}
		if key != "" && attrs["content"] != "" {
			out[strings.ToLower(key)] = html.UnescapeString(attrs["content"])
		}
	}
	if m := reTitleTag.FindStringSubmatch(page); m != nil {
		if _, ok := out["title"]; !ok {
			out["title"] = strings.TrimSpace(html.UnescapeString(m[1]))
		}
	}
	return out
}

func firstOf(meta map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(meta[k]); v != "" {
			return v
		}
	}
	return ""
}

func resolveURL(base, maybe string) string {
	bu, err := url.Parse(base)
	if err != nil {
		return maybe
	}
	mu, err := url.Parse(maybe)
	if err != nil {
		return maybe
	}
	return bu.ResolveReference(mu).String()
}

// youtubeID extracts the video id from youtube.com / youtu.be URLs, "" for
// anything else.
func youtubeID(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	switch {
	case strings.HasSuffix(host, "youtu.be"):
		return strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)[0]
	case strings.Contains(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if strings.HasPrefix(u.Path, "/shorts/") {
			parts := strings.Split(u.Path, "/")
			if len(parts) >= 3 {
				return parts[2]
			}
		}
	}
	return ""
}
