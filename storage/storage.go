// Package storage uploads evidence and cover images to blob providers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/phillip/civic-go/models"
)

const (
	FolderEvidence = "evidence"
	FolderCovers   = "covers"
)

var ErrNoProvider = errors.New("storage: no provider configured")

// UploadFile is a file received from a client. Open may be called once per
// upload attempt.
type UploadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type Result struct {
	URL      string
	Provider string
	Width    int
	Height   int
	Bytes    int64
}

type Provider interface {
	Name() string
	Upload(ctx context.Context, folder string, f UploadFile) (*Result, error)
}

// Deleter is implemented by providers that can remove what they stored.
type Deleter interface {
	Owns(url string) bool
	Delete(ctx context.Context, url string) error
}

// Router picks a provider per upload. Image is the image-optimized
// provider, Blob the generic one; either may be nil.
type Router struct {
	Image  Provider
	Blob   Provider
	Logger *slog.Logger
}

func (r *Router) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// ForEvidence returns the provider for an evidence type: photos go to the
// image provider, everything else to the blob provider.
func (r *Router) ForEvidence(t models.EvidenceType) Provider {
	primary, other := r.Blob, r.Image
	if t.IsImage() {
		primary, other = r.Image, r.Blob
	}
	if primary != nil {
		return primary
	}
	return other
}

func (r *Router) UploadEvidence(ctx context.Context, t models.EvidenceType, f UploadFile) (*Result, error) {
	p := r.ForEvidence(t)
	if p == nil {
		return nil, ErrNoProvider
	}
	return p.Upload(ctx, FolderEvidence, f)
}

// UploadCover tries the image provider and then the blob provider once.
func (r *Router) UploadCover(ctx context.Context, f UploadFile) (*Result, error) {
	var errs []error
	for _, p := range []Provider{r.Image, r.Blob} {
		if p == nil {
			continue
		}
		res, err := p.Upload(ctx, FolderCovers, f)
		if err == nil {
			return res, nil
		}
		r.logger().Warn("cover upload failed", "provider", p.Name(), "file", f.FileName, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if len(errs) == 0 {
		return nil, ErrNoProvider
	}
	return nil, errors.Join(errs...)
}

// Delete removes url from whichever provider owns it. URLs no provider
// claims are ignored.
func (r *Router) Delete(ctx context.Context, url string) error {
	for _, p := range []Provider{r.Image, r.Blob} {
		if d, ok := p.(Deleter); ok && d.Owns(url) {
			return d.Delete(ctx, url)
		}
	}
	return nil
}

// readAll reads a whole upload; files are size-capped before they get here.
func readAll(f UploadFile) ([]byte, error) {
	if f.Open == nil {
		return nil, errors.New("file has no content")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.FileName, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		return strings.ToLower(name[i:])
	}
	return ""
}
