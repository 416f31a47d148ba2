package publish

import (
	"context"
	"frameshot/internal/capture"
	"frameshot/internal/report"
	"frameshot/internal/storage"

	"golang.org/x/xerrors"
)

type Renderer interface {
	// Render captures request.URL and returns the path the image was
	// written to.
	Render(ctx context.Context, request capture.Request) (string, error)
}

type renderer struct {
	capturer capture.Capturer
	storage  storage.Storage
	reporter report.Reporter
}

func NewRenderer(capturer capture.Capturer, s storage.Storage, reporter report.Reporter) Renderer {
	return &renderer{
		capturer: capturer,
		storage:  s,
		reporter: reporter,
	}
}

func (r *renderer) Render(ctx context.Context, request capture.Request) (string, error) {
	if err := request.Validate(); err != nil {
		return "", RenderError(xerrors.Errorf("invalid capture request: %w", err))
	}

	result, err := r.capturer.Capture(ctx, request)
	if err != nil {
		return "", RenderError(err)
	}
	if result == nil || len(result.Screenshot) == 0 {
		return "", RenderError(xerrors.New("capture produced no image"))
	}

	path, err := r.storage.Put(ctx, request.OutputPath, result.Screenshot)
	if err != nil {
		return "", RenderError(xerrors.Errorf("failed to save screenshot: %w", err))
	}

	r.reporter.Success("screenshot saved", "path", path, "bytes", len(result.Screenshot))
	return path, nil
}
