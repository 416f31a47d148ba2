package publish

import (
	"context"
	"frameshot/internal/capture"
	"frameshot/internal/device"
	"frameshot/internal/report"
	"frameshot/internal/storage"

	"golang.org/x/xerrors"
)

type DisplayOptions struct {
	MatteType  device.MatteType
	MatteColor device.MatteColor
}

type Uploader struct {
	storage  storage.Storage
	reporter report.Reporter
}

func NewUploader(s storage.Storage, reporter report.Reporter) *Uploader {
	return &Uploader{
		storage:  s,
		reporter: reporter,
	}
}

// Upload connects the session, pushes the image at path and makes it the
// current art. The session is left open for the caller to close.
func (u *Uploader) Upload(ctx context.Context, session *Session, path string, options DisplayOptions) (string, error) {
	u.reporter.Info("connecting to device", "host", session.Host)
	if err := session.Open(ctx); err != nil {
		return "", err
	}
	u.reporter.Success("connected to device", "host", session.Host)

	client, err := session.Client()
	if err != nil {
		return "", err
	}

	data, err := u.storage.Get(ctx, path)
	if err != nil {
		return "", UploadError(xerrors.Errorf("failed to read %s: %w", path, err))
	}
	if len(data) == 0 {
		return "", UploadError(xerrors.Errorf("%s is empty", path))
	}

	fileType := FileType(path)
	u.reporter.Info("uploading image to device", "fileType", fileType, "bytes", len(data))
	id, err := client.Upload(ctx, data, device.UploadOptions{
		FileType:   fileType,
		MatteType:  options.MatteType,
		MatteColor: options.MatteColor,
	})
	if err != nil {
		return "", UploadError(xerrors.Errorf("device rejected upload: %w", err))
	}

	u.reporter.Info("setting new art", "id", id)
	if err := client.SetCurrentArt(ctx, id); err != nil {
		return "", UploadError(xerrors.Errorf("failed to activate %s: %w", id, err))
	}

	return id, nil
}

// FileType is the device file type of the image the renderer wrote to path.
func FileType(path string) string {
	if capture.FormatFromPath(path) == "jpeg" {
		return "jpg"
	}
	return "png"
}
