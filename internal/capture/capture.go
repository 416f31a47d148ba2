package capture

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

type Media string

const (
	MediaUnset  Media = ""
	MediaScreen Media = "screen"
	MediaPrint  Media = "print"
)

type Request struct {
	URL        string
	Width      int
	Height     int
	Media      Media
	Delay      time.Duration
	OutputPath string
}

func (r Request) Validate() error {
	if r.URL == "" {
		return xerrors.New("url is required")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return xerrors.Errorf("viewport must be positive, got %dx%d", r.Width, r.Height)
	}
	if r.Delay < 0 {
		return xerrors.Errorf("render delay must not be negative, got %s", r.Delay)
	}
	switch r.Media {
	case MediaUnset, MediaScreen, MediaPrint:
	default:
		return xerrors.Errorf("unsupported media type: %s", r.Media)
	}
	return nil
}

// Format returns the screenshot encoding implied by the output path.
func (r Request) Format() string {
	return FormatFromPath(r.OutputPath)
}

type Result struct {
	Screenshot []byte
	HTML       []byte
	Format     string
}

type Capturer interface {
	Capture(ctx context.Context, request Request) (*Result, error)
}

func FormatFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "jpg", "jpeg":
		return "jpeg"
	default:
		return "png"
	}
}
