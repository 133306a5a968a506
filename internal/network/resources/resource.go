package resources

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

type ResourceStatus int

const (
	PENDING ResourceStatus = iota
	DOWNLOADING
	DOWNLOADED
	ERROR
)

// ResourceHandler moves the remote bytes of one resource to disk.
type ResourceHandler interface {
	GetURL() url.URL
	Download(ctx context.Context, resource *Resource) error
}

// Resource tracks one remote file, its destination path and its download
// progress.
type Resource struct {
	Handler   ResourceHandler
	Path      string
	Total     int64
	Available int64
	Status    ResourceStatus
}

func NewResource(resourceHandler ResourceHandler, resourcePath string) *Resource {
	return &Resource{
		Handler: resourceHandler,
		Path:    resourcePath,
		Status:  PENDING,
	}
}

func (resource *Resource) Download(ctx context.Context) (err error) {
	resource.Status = DOWNLOADING
	if err = resource.Handler.Download(ctx, resource); err != nil {
		resource.Status = ERROR
		return
	}
	resource.Status = DOWNLOADED
	return
}

// Write accumulates the downloaded byte count, so the save path reports
// progress through an io.TeeReader.
func (resource *Resource) Write(buffer []byte) (int, error) {
	bufferSize := len(buffer)
	resource.Available += int64(bufferSize)
	return bufferSize, nil
}

// Save streams reader into the destination file, creating the parent
// folders when needed. The bytes land in a temporary file first and move
// into place only once the stream completed, so an interrupted download
// never leaves a truncated destination behind.
func (resource *Resource) Save(reader io.Reader) (err error) {
	if err = os.MkdirAll(filepath.Dir(resource.Path), 0755); err != nil {
		return
	}
	var out *os.File
	if out, err = os.CreateTemp(filepath.Dir(resource.Path), filepath.Base(resource.Path)+".*.part"); err != nil {
		return
	}
	if _, err = io.Copy(out, io.TeeReader(reader, resource)); err != nil {
		out.Close()
		os.Remove(out.Name())
		return
	}
	if err = out.Close(); err != nil {
		os.Remove(out.Name())
		return
	}
	err = os.Rename(out.Name(), resource.Path)
	return
}
