package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"arkhive.dev/hearth/internal/folder"
	"arkhive.dev/hearth/internal/network"
)

// Media describes one size variant of a service artwork asset. Variants are
// plain records rather than a type per size, so a service declares its whole
// catalogue as a slice.
type Media struct {
	Name        string
	Width       int
	Height      int
	Source      string
	FilePattern string
}

func (media Media) FileName(appID string) string {
	return fmt.Sprintf(media.FilePattern, appID)
}

// URL resolves the remote address of the asset for one game. Upstream
// records carry a host-relative path under the Source key; games without
// the asset resolve to false.
func (media Media) URL(host string, details map[string]interface{}) (string, bool) {
	value, ok := details[media.Source]
	if !ok {
		return "", false
	}
	path, ok := value.(string)
	if !ok || path == "" {
		return "", false
	}
	return host + path, true
}

// Fetcher caches service artwork on disk, one directory per service and per
// variant.
type Fetcher struct {
	networkEngine *network.NetworkEngine
	basePath      string
}

func NewFetcher(networkEngine *network.NetworkEngine, basePath string) (instance *Fetcher) {
	instance = &Fetcher{
		networkEngine: networkEngine,
		basePath:      basePath,
	}
	return
}

// Destination returns the cache path of one asset.
func (fetcher *Fetcher) Destination(serviceID string, media Media, appID string) string {
	return filepath.Join(fetcher.basePath, folder.MediaPath, serviceID, media.Name, media.FileName(appID))
}

// Fetch downloads one asset unless the cache already holds it. The returned
// flag reports whether a download happened.
func (fetcher *Fetcher) Fetch(ctx context.Context, serviceID string, media Media, appID string, remoteURL string) (destinationPath string, downloaded bool, err error) {
	destinationPath = fetcher.Destination(serviceID, media, appID)
	if _, statErr := os.Stat(destinationPath); statErr == nil {
		return
	}
	if _, err = fetcher.networkEngine.DownloadFile(ctx, remoteURL, destinationPath); err != nil {
		return
	}
	downloaded = true
	return
}
