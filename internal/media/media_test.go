package media_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"arkhive.dev/hearth/internal/media"
	"arkhive.dev/hearth/internal/network"
	"github.com/stretchr/testify/assert"
)

var icon = media.Media{
	Name:        "icon",
	Width:       70,
	Height:      70,
	Source:      "icon",
	FilePattern: "%s.png",
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "42.png", icon.FileName("42"))
}

func TestURL(t *testing.T) {
	details := map[string]interface{}{"icon": "/assets/icon.png"}
	remoteURL, ok := icon.URL("https://demo.romm.app", details)
	assert.True(t, ok)
	assert.Equal(t, "https://demo.romm.app/assets/icon.png", remoteURL)
}

func TestURLMissingSource(t *testing.T) {
	_, ok := icon.URL("https://demo.romm.app", map[string]interface{}{})
	assert.False(t, ok)
}

func TestURLEmptySource(t *testing.T) {
	_, ok := icon.URL("https://demo.romm.app", map[string]interface{}{"icon": ""})
	assert.False(t, ok)
	_, ok = icon.URL("https://demo.romm.app", map[string]interface{}{"icon": 7})
	assert.False(t, ok)
}

func TestDestination(t *testing.T) {
	fetcher := media.NewFetcher(nil, "base")
	expected := filepath.Join("base", "media", "romm", "icon", "42.png")
	assert.Equal(t, expected, fetcher.Destination("romm", icon, "42"))
}

func TestFetchDownloads(t *testing.T) {
	payload := []byte("image bytes")
	var requests atomic.Int32
	testServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)
		writer.Write(payload)
	}))
	defer testServer.Close()

	fetcher := media.NewFetcher(network.NewNetworkEngine(time.Second), t.TempDir())
	destinationPath, downloaded, err := fetcher.Fetch(context.Background(), "romm", icon, "42", testServer.URL+"/assets/icon.png")
	assert.Nil(t, err)
	assert.True(t, downloaded)
	assert.Equal(t, int32(1), requests.Load())
	written, err := os.ReadFile(destinationPath)
	assert.Nil(t, err)
	assert.Equal(t, payload, written)
}

func TestFetchUsesCache(t *testing.T) {
	var requests atomic.Int32
	testServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)
	}))
	defer testServer.Close()

	fetcher := media.NewFetcher(network.NewNetworkEngine(time.Second), t.TempDir())
	destinationPath := fetcher.Destination("romm", icon, "42")
	assert.Nil(t, os.MkdirAll(filepath.Dir(destinationPath), 0755))
	assert.Nil(t, os.WriteFile(destinationPath, []byte("cached"), 0644))

	fetchedPath, downloaded, err := fetcher.Fetch(context.Background(), "romm", icon, "42", testServer.URL+"/assets/icon.png")
	assert.Nil(t, err)
	assert.False(t, downloaded)
	assert.Equal(t, destinationPath, fetchedPath)
	assert.Equal(t, int32(0), requests.Load())
}

func TestFetchError(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	}))
	defer testServer.Close()

	fetcher := media.NewFetcher(network.NewNetworkEngine(time.Second), t.TempDir())
	_, downloaded, err := fetcher.Fetch(context.Background(), "romm", icon, "42", testServer.URL+"/assets/icon.png")
	assert.NotNil(t, err)
	assert.False(t, downloaded)
}
