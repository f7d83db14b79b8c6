package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeta(t *testing.T) {
	page := `<html><head>
		<title>Fallback &amp; Titel</title>
		<meta property="og:title" content="Seiten-Titel">
		<meta property="og:description" content='Eine Beschreibung'>
		<meta name="twitter:image" content="/img/card.png">
	</head></html>`

	meta := parseMeta(page)
	assert.Equal(t, "Seiten-Titel", meta["og:title"])
	assert.Equal(t, "Eine Beschreibung", meta["og:description"])
	assert.Equal(t, "/img/card.png", meta["twitter:image"])
	assert.Equal(t, "Fallback & Titel", meta["title"])
}

func TestYoutubeID(t *testing.T) {
	assert.Equal(t, "dQw4w9WgXcQ", youtubeID("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", youtubeID("https://youtu.be/dQw4w9WgXcQ"))
	assert.Equal(t, "abc123", youtubeID("https://youtube.com/shorts/abc123"))
	assert.Equal(t, "", youtubeID("https://example.com/watch?v=x"))
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://example.com/img/card.png",
		resolveURL("https://example.com/page", "/img/card.png"))
	assert.Equal(t, "https://cdn.example.com/x.png",
		resolveURL("https://example.com/page", "https://cdn.example.com/x.png"))
}

func TestFetchBuildsCardFromMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Mozilla/5.0 (WhatsAppExportTools/1.0)", r.Header.Get("User-Agent"))
		if r.URL.Path == "/img.png" {
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("pngbytes"))
			return
		}
		fmt.Fprintf(w, `<html><head>
			<meta property="og:title" content="Kamelhilfe">
			<meta property="og:image" content="/img.png">
		</head></html>`)
	}))
	defer srv.Close()

	f := NewFetcher(nil, time.Second, 0)
	card, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, "Kamelhilfe", card.Title)
	assert.Contains(t, card.ImageDataURL, "data:image/png;base64,")
}

func TestFetchDegradesToNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(nil, time.Second, 0)
	card, err := f.Fetch(context.Background(), srv.URL)
	assert.NoError(t, err)
	assert.Nil(t, card)
}

func TestFetchOversizedImageSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big.png" {
			w.Header().Set("Content-Type", "image/png")
			w.Write(make([]byte, 64))
			return
		}
		fmt.Fprintf(w, `<meta property="og:title" content="T"><meta property="og:image" content="/big.png">`)
	}))
	defer srv.Close()

	f := NewFetcher(nil, time.Second, 16)
	card, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Empty(t, card.ImageDataURL)
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "sub", "previews.db"))
	require.NoError(t, err)
	defer cache.Close()

	got, err := cache.Get("https://example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	card := &Card{URL: "https://example.com", Title: "T", Description: "D", ImageDataURL: "data:x"}
	require.NoError(t, cache.Put(card, "2019-04-13T18:59:06Z"))

	got, err = cache.Get("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, card, got)
}

func TestFetchServesFromCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprintf(w, `<meta property="og:title" content="Einmalig">`)
	}))
	defer srv.Close()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "previews.db"))
	require.NoError(t, err)
	defer cache.Close()

	f := NewFetcher(cache, time.Second, 0)
	_, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	card, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, "Einmalig", card.Title)
	assert.Equal(t, 1, hits)
}
