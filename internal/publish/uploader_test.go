package publish_test

import (
	"context"
	"errors"
	"frameshot/internal/capture"
	"frameshot/internal/device"
	"frameshot/internal/publish"
	"frameshot/internal/report"
	"frameshot/internal/storage"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFileType(t *testing.T) {
	for in, want := range map[string]string{
		"screenshot.png":   "png",
		"/tmp/frame.JPG":   "jpg",
		"art/frame.jpeg":   "jpg",
		"no-extension-set": "png",
		"frame.gif":        "png",
	} {
		if diff := cmp.Diff(want, publish.FileType(in)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", in, diff)
		}
	}
}

type optionsRecorder struct {
	device.Client
	options device.UploadOptions
}

func (r *optionsRecorder) Upload(ctx context.Context, data []byte, options device.UploadOptions) (string, error) {
	r.options = options
	return r.Client.Upload(ctx, data, options)
}

func TestUploader(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: dir})
	if err != nil {
		t.Fatal(err)
	}
	path, err := s.Put(ctx, "frame.jpg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("UploadsAndActivates", func(t *testing.T) {
		client := device.NewMemoryClient()
		session := publish.NewSession("tv", client)

		id, err := publish.NewUploader(s, report.Discard()).Upload(ctx, session, path, publish.DisplayOptions{
			MatteType:  device.MatteFlexible,
			MatteColor: device.MatteColorSand,
		})
		if err != nil {
			t.Fatalf("Upload: %v", err)
		}
		if diff := cmp.Diff(id, client.Current()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if session.Closed() {
			t.Error("uploader must leave the session open")
		}
		items := client.Items()
		if diff := cmp.Diff(device.MatteFlexible, items[0].MatteType); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("FileTypeFollowsRenderedFormat", func(t *testing.T) {
		for key, want := range map[string]string{
			"rendered.jpeg": "jpg",
			"rendered":      "png",
			"rendered.gif":  "png",
		} {
			p, err := s.Put(ctx, key, []byte("image-bytes"))
			if err != nil {
				t.Fatal(err)
			}
			client := &optionsRecorder{Client: device.NewMemoryClient()}
			if _, err := publish.NewUploader(s, report.Discard()).Upload(ctx, publish.NewSession("tv", client), p, publish.DisplayOptions{}); err != nil {
				t.Fatalf("Upload %s: %v", key, err)
			}
			if diff := cmp.Diff(want, client.options.FileType); diff != "" {
				t.Errorf("%s (-want +got):\n%s", key, diff)
			}
		}
	})

	t.Run("MissingImage", func(t *testing.T) {
		client := device.NewMemoryClient()
		session := publish.NewSession("tv", client)

		_, err := publish.NewUploader(s, report.Discard()).Upload(ctx, session, filepath.Join(dir, "absent.png"), publish.DisplayOptions{})
		if !publish.IsKind(err, publish.KindUpload) {
			t.Fatalf("expected upload error, got %v", err)
		}
		if diff := cmp.Diff(0, client.Count(device.OperationUpload)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("SessionReuse", func(t *testing.T) {
		client := device.NewMemoryClient()
		session := publish.NewSession("tv", client)
		if err := session.Open(ctx); err != nil {
			t.Fatal(err)
		}

		_, err := publish.NewUploader(s, report.Discard()).Upload(ctx, session, path, publish.DisplayOptions{})
		if !publish.IsKind(err, publish.KindConnection) {
			t.Fatalf("expected connection error, got %v", err)
		}
		if diff := cmp.Diff(1, client.Count(device.OperationConnect)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
}

func TestRenderer(t *testing.T) {
	ctx := context.Background()
	request := capture.Request{
		URL:        "https://example.com",
		Width:      800,
		Height:     600,
		OutputPath: "out/screenshot.png",
	}

	t.Run("EmptyScreenshot", func(t *testing.T) {
		dir := t.TempDir()
		s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: dir})
		if err != nil {
			t.Fatal(err)
		}
		capturer := &capturerMock{fakeCapture: func(context.Context, capture.Request) (*capture.Result, error) {
			return &capture.Result{}, nil
		}}

		_, err = publish.NewRenderer(capturer, s, report.Discard()).Render(ctx, request)
		if !publish.IsKind(err, publish.KindRender) {
			t.Fatalf("expected render error, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "out", "screenshot.png")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("no file may be written, stat returned %v", err)
		}
	})

	t.Run("Writes", func(t *testing.T) {
		dir := t.TempDir()
		s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: dir})
		if err != nil {
			t.Fatal(err)
		}
		capturer := &capturerMock{fakeCapture: func(ctx context.Context, r capture.Request) (*capture.Result, error) {
			if diff := cmp.Diff(request, r); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			return &capture.Result{Screenshot: []byte("png"), Format: "png"}, nil
		}}

		path, err := publish.NewRenderer(capturer, s, report.Discard()).Render(ctx, request)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if diff := cmp.Diff(filepath.Join(dir, "out", "screenshot.png"), path); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff("png", string(data)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
}
