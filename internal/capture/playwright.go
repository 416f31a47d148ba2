package capture

import (
	"context"
	"frameshot/internal/report"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/xerrors"
)

type PlaywrightConfig struct {
	FullPage bool
	Quality  int

	Timeout time.Duration

	Headless                  bool
	ChromeDevtoolsProtocolURL string
}

func DefaultPlaywrightConfig() PlaywrightConfig {
	return PlaywrightConfig{
		FullPage: true,
		Quality:  90,
		Timeout:  30 * time.Second,
		Headless: true,
	}
}

type playwrightCapturer struct {
	config   PlaywrightConfig
	reporter report.Reporter
	sleep    func(time.Duration)
}

func NewPlaywrightCapturer(ctx context.Context, p PlaywrightConfig, reporter report.Reporter) (Capturer, error) {
	if reporter == nil {
		reporter = report.Discard()
	}
	return &playwrightCapturer{
		config:   p,
		reporter: reporter,
		sleep:    time.Sleep,
	}, nil
}

func (c *playwrightCapturer) Capture(ctx context.Context, request Request) (*Result, error) {
	if err := request.Validate(); err != nil {
		return nil, xerrors.Errorf("invalid capture request: %w", err)
	}

	p, err := playwright.Run()
	if err != nil {
		return nil, xerrors.Errorf("failed to start playwright: %w", err)
	}
	defer p.Stop()

	var browser playwright.Browser

	c.reporter.Info("launching browser")
	if c.config.ChromeDevtoolsProtocolURL == "" {
		browser, err = p.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(c.config.Headless),
		})
		if err != nil {
			return nil, xerrors.Errorf("failed to launch browser: %w", err)
		}
	} else {
		browser, err = p.Chromium.ConnectOverCDP(c.config.ChromeDevtoolsProtocolURL)
		if err != nil {
			return nil, xerrors.Errorf("failed to connect to browser via CDP at %s: %w", c.config.ChromeDevtoolsProtocolURL, err)
		}
	}
	defer func() {
		c.reporter.Info("closing browser")
		browser.Close()
	}()

	c.reporter.Info("creating page", "width", request.Width, "height", request.Height)
	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{
			Width:  request.Width,
			Height: request.Height,
		},
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to create new page: %w", err)
	}
	defer page.Close()

	if media := emulatedMedia(request.Media); media != nil {
		if err := page.EmulateMedia(playwright.PageEmulateMediaOptions{
			Media: media,
		}); err != nil {
			return nil, xerrors.Errorf("failed to emulate %s media: %w", request.Media, err)
		}
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			page.Close()
		case <-done:
		}
	}()
	defer close(done)

	c.reporter.Info("navigating to address", "url", request.URL)
	if _, err := page.Goto(request.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(c.config.Timeout.Milliseconds())),
	}); err != nil {
		return nil, xerrors.Errorf("failed to navigate to %s: %w", request.URL, err)
	}

	// The render delay runs to completion once started.
	if request.Delay > 0 {
		c.reporter.Info("giving time to render", "delay", request.Delay.String())
		c.sleep(request.Delay)
	}

	htmlContent, err := page.Content()
	if err != nil {
		return nil, xerrors.Errorf("failed to get HTML content: %w", err)
	}

	options := playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(c.config.FullPage),
	}

	format := request.Format()
	switch format {
	case "jpeg":
		options.Type = playwright.ScreenshotTypeJpeg
		if c.config.Quality > 0 {
			options.Quality = playwright.Int(c.config.Quality)
		}
	default:
		options.Type = playwright.ScreenshotTypePng
	}

	c.reporter.Info("taking screenshot", "format", format)
	screenshotBytes, err := page.Screenshot(options)
	if err != nil {
		return nil, xerrors.Errorf("failed to take screenshot: %w", err)
	}
	if len(screenshotBytes) == 0 {
		return nil, xerrors.New("browser returned an empty screenshot")
	}

	return &Result{
		Screenshot: screenshotBytes,
		HTML:       []byte(htmlContent),
		Format:     format,
	}, nil
}

func emulatedMedia(m Media) *playwright.Media {
	switch m {
	case MediaPrint:
		return playwright.MediaPrint
	case MediaScreen:
		return playwright.MediaScreen
	default:
		return nil
	}
}
