package main

import (
	"context"
	"flag"
	"fmt"
	"frameshot/internal/capture"
	"frameshot/internal/config"
	"frameshot/internal/device"
	"frameshot/internal/metrics"
	"frameshot/internal/publish"
	"frameshot/internal/report"
	"frameshot/internal/storage"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/joho/godotenv"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/xerrors"
)

var version = "dev"

func newLogger(level string, format string) (logr.Logger, func(), error) {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return logr.Discard(), func() {}, xerrors.Errorf("invalid log level %q: %w", level, err)
	}

	c := zap.NewProductionConfig()
	if format == "console" {
		c = zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	c.Level = zap.NewAtomicLevelAt(l)
	c.DisableStacktrace = true

	z, err := c.Build()
	if err != nil {
		return logr.Discard(), func() {}, xerrors.Errorf("failed to build logger: %w", err)
	}
	return zapr.NewLogger(z), func() { _ = z.Sync() }, nil
}

func newDeviceClient(c config.Config) (device.Client, error) {
	switch c.Device {
	case config.DeviceMemory:
		return device.NewMemoryClient(), nil
	default:
		return device.NewFrameClient(device.FrameConfig{
			Host:     c.Host,
			Port:     c.DevicePort,
			Name:     "frameshot",
			Category: c.ArtCategory,
		})
	}
}

func main() {
	// A missing .env file is fine; variables may come from the environment.
	_ = godotenv.Load()

	c := config.Default()
	var showVersion bool
	c.BindFlags(flag.CommandLine)
	flag.BoolVar(&showVersion, "version", false, "Print the version and exit")
	flag.BoolVar(&showVersion, "v", false, "Print the version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	logger, sync, err := newLogger(c.LogLevel, c.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	code := run(c, report.New(logger))
	sync()
	os.Exit(code)
}

func run(c config.Config, reporter report.Reporter) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.InstallBrowsers {
		reporter.Info("installing playwright browsers")
		if err := playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
		}); err != nil {
			reporter.Error(err, "failed to install playwright browsers")
			return 1
		}
	}

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{})
	if err != nil {
		reporter.Error(err, "failed to create storage backend")
		return 1
	}

	playwrightConfig := capture.DefaultPlaywrightConfig()
	playwrightConfig.Timeout = c.NavigationTimeout
	playwrightConfig.ChromeDevtoolsProtocolURL = c.ChromeDevtoolsProtocolURL
	if display := os.Getenv("DISPLAY"); display != "" && c.ChromeDevtoolsProtocolURL == "" {
		playwrightConfig.Headless = false
	}

	capturer, err := capture.NewPlaywrightCapturer(ctx, playwrightConfig, reporter.WithName("renderer"))
	if err != nil {
		reporter.Error(err, "failed to create capturer")
		return 1
	}

	client, err := newDeviceClient(c)
	if err != nil {
		reporter.Error(err, "failed to create device client")
		return 1
	}

	recorder := metrics.NewRecorder()
	pipeline := &publish.Pipeline{
		Renderer: publish.NewRenderer(capturer, s, reporter.WithName("renderer")),
		Uploader: publish.NewUploader(s, reporter.WithName("uploader")),
		Gallery:  publish.NewGalleryManager(reporter.WithName("gallery"), recorder),
		NewSession: func() *publish.Session {
			return publish.NewSession(c.Host, client)
		},
		Reporter: reporter,
		Metrics:  recorder,
	}

	started := time.Now()
	outcome, err := pipeline.Run(ctx, publish.Job{
		Capture: c.CaptureRequest(),
		Display: publish.DisplayOptions{
			MatteType:  c.MatteType,
			MatteColor: c.MatteColor,
		},
		MaxItems: c.MaxItemsOnDevice,
	})

	if pushErr := recorder.Push(context.Background(), c.PushgatewayURL, "frameshot", c.Host); pushErr != nil {
		reporter.Warning("failed to push metrics", "error", pushErr.Error())
	}

	if err != nil {
		reporter.Error(err, "run failed", "stage", string(publish.KindOf(err)), "state", string(outcome.State))
		return 1
	}

	reporter.Success("done",
		"path", outcome.Path,
		"id", outcome.ItemID,
		"evicted", len(outcome.Evicted),
		"elapsed", time.Since(started).String(),
	)
	return 0
}
