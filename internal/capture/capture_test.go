package capture_test

import (
	"fmt"
	"frameshot/internal/capture"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			"screenshot.png",
			"png",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			"/tmp/art/frame.JPG",
			"jpeg",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			"frame.jpeg",
			"jpeg",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			"no-extension",
			"png",
		},
	}

	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := capture.FormatFromPath(in)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestValidate(t *testing.T) {
	valid := capture.Request{
		URL:        "https://example.com",
		Width:      1920,
		Height:     1080,
		Media:      capture.MediaPrint,
		Delay:      5 * time.Second,
		OutputPath: "screenshot.png",
	}

	tests := []struct {
		name            string
		in              func(capture.Request) capture.Request
		wantErrorString string
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func(r capture.Request) capture.Request { return r },
			"",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func(r capture.Request) capture.Request { r.URL = ""; return r },
			"url is required",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func(r capture.Request) capture.Request { r.Height = 0; return r },
			"viewport must be positive, got 1920x0",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func(r capture.Request) capture.Request { r.Delay = -time.Millisecond; return r },
			"render delay must not be negative, got -1ms",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func(r capture.Request) capture.Request { r.Media = "tv"; return r },
			"unsupported media type: tv",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func(r capture.Request) capture.Request { r.Media = capture.MediaUnset; r.Delay = 0; return r },
			"",
		},
	}

	for _, tt := range tests {
		name := tt.name
		in := tt.in(valid)
		wantErrorString := tt.wantErrorString
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := in.Validate()
			if wantErrorString == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", wantErrorString)
			}
			if diff := cmp.Diff(wantErrorString, err.Error()); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}
