package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"frameshot/internal/capture"
	"frameshot/internal/report"
	"frameshot/internal/storage"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CaptureOutput is printed to stdout after a successful capture.
type CaptureOutput struct {
	ScreenshotPath string `json:"screenshotPath"`
	HTMLPath       string `json:"htmlPath"`
}

func envOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	}

	return defaultValue
}

func main() {
	var storageBackend string
	var directory string
	var bucket string
	var format string
	var mediaType string
	var delay time.Duration
	var viewportWidth int
	var viewportHeight int
	var chromeDevtoolsProtocolURL string
	flag.StringVar(&storageBackend, "storage-backend", envOrDefaultValue("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "."), "Output directory for the file backend")
	flag.StringVar(&bucket, "bucket", envOrDefaultValue("S3_BUCKET", ""), "Bucket for the s3 backend")
	flag.StringVar(&format, "format", envOrDefaultValue("FORMAT", "png"), "Output format (png or jpeg)")
	flag.StringVar(&mediaType, "media-type", envOrDefaultValue("MEDIA_TYPE", "print"), "Media type used to load the page (print, screen or empty)")
	flag.DurationVar(&delay, "delay", envOrDefaultValue("DELAY", 5*time.Second), "Delay before capturing")
	flag.IntVar(&viewportWidth, "viewport-width", envOrDefaultValue("VIEWPORT_WIDTH", 1920), "Viewport width in pixels")
	flag.IntVar(&viewportHeight, "viewport-height", envOrDefaultValue("VIEWPORT_HEIGHT", 1080), "Viewport height in pixels")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", envOrDefaultValue("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")

	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		log.Fatalf("url not specified")
	}
	url := args[0]

	ctx := context.Background()

	z, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer z.Sync()
	reporter := report.New(zapr.NewLogger(z))

	var s storage.Storage
	switch storageBackend {
	case "file":
		s, err = storage.NewFileStorage(ctx, storage.FileConfig{
			Directory: directory,
		})
	case "s3":
		s, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:      bucket,
			EndpointURL: os.Getenv("S3_ENDPOINT_URL"),
		})
	default:
		log.Fatalf("Unknown storage backend: %s", storageBackend)
	}
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	config := capture.DefaultPlaywrightConfig()
	if chromeDevtoolsProtocolURL != "" {
		config.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
	}
	if display := os.Getenv("DISPLAY"); display != "" {
		config.Headless = false
	}

	capturer, err := capture.NewPlaywrightCapturer(ctx, config, reporter)
	if err != nil {
		log.Fatalf("Failed to create capturer: %v", err)
	}

	timestamp := time.Now().Format("20060102150405")

	h := sha256.New()
	h.Write([]byte(url))
	urlHash := fmt.Sprintf("%x", h.Sum(nil))[:16]

	baseKey := fmt.Sprintf("frameshot/capture/%s/%s", urlHash, timestamp)
	imageKey := fmt.Sprintf("%s.%s", baseKey, format)

	result, err := capturer.Capture(ctx, capture.Request{
		URL:        url,
		Width:      viewportWidth,
		Height:     viewportHeight,
		Media:      capture.Media(mediaType),
		Delay:      delay,
		OutputPath: imageKey,
	})
	if err != nil {
		log.Fatalf("Failed to capture screenshot: %v", err)
	}

	var output CaptureOutput

	{
		eg, ctx := errgroup.WithContext(ctx)

		eg.Go(func() error {
			path, err := s.Put(ctx, imageKey, result.Screenshot)
			if err != nil {
				return err
			}
			output.ScreenshotPath = path
			return nil
		})

		eg.Go(func() error {
			htmlKey := fmt.Sprintf("%s.html", baseKey)
			path, err := s.Put(ctx, htmlKey, result.HTML)
			if err != nil {
				return err
			}
			output.HTMLPath = path
			return nil
		})

		if err := eg.Wait(); err != nil {
			log.Fatalf("Failed to store capture: %v", err)
		}
	}

	if err := json.NewEncoder(os.Stdout).Encode(output); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}
