package storage_test

import (
	"context"
	"frameshot/internal/storage"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFileStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("RelativeKey", func(t *testing.T) {
		dir := t.TempDir()
		s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: dir})
		if err != nil {
			t.Fatal(err)
		}

		path, err := s.Put(ctx, "nested/screenshot.png", []byte("image"))
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if diff := cmp.Diff(filepath.Join(dir, "nested", "screenshot.png"), path); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}

		got, err := s.Get(ctx, "nested/screenshot.png")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if diff := cmp.Diff([]byte("image"), got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("AbsoluteKey", func(t *testing.T) {
		dir := t.TempDir()
		s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: "ignored"})
		if err != nil {
			t.Fatal(err)
		}

		want := filepath.Join(dir, "frame.jpeg")
		path, err := s.Put(ctx, want, []byte("jpeg"))
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if diff := cmp.Diff(want, path); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("OverwriteLeavesNoTemporaryFiles", func(t *testing.T) {
		dir := t.TempDir()
		s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: dir})
		if err != nil {
			t.Fatal(err)
		}

		for _, data := range []string{"first", "second"} {
			if _, err := s.Put(ctx, "screenshot.png", []byte(data)); err != nil {
				t.Fatalf("Put: %v", err)
			}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		if diff := cmp.Diff([]string{"screenshot.png"}, names); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}

		got, err := s.Get(ctx, filepath.Join(dir, "screenshot.png"))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff("second", string(got)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: t.TempDir()})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.Get(ctx, "absent.png"); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
