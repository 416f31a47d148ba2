// Package config holds the validated settings of a frameshot run.
package config

import (
	"errors"
	"flag"
	"frameshot/internal/capture"
	"frameshot/internal/device"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

const (
	DeviceFrame  = "frame"
	DeviceMemory = "memory"
)

type Config struct {
	Host string
	URL  string

	RenderTime time.Duration
	Width      int
	Height     int
	MediaType  capture.Media
	Output     string

	MatteType  device.MatteType
	MatteColor device.MatteColor
	// MaxItemsOnDevice <= 0 disables gallery eviction.
	MaxItemsOnDevice int

	Device      string
	DevicePort  int
	ArtCategory string

	ChromeDevtoolsProtocolURL string
	NavigationTimeout         time.Duration
	InstallBrowsers           bool

	PushgatewayURL string

	LogLevel  string
	LogFormat string

	envErrors []error
}

func Default() Config {
	return Config{
		RenderTime:        5000 * time.Millisecond,
		Width:             1920,
		Height:            1080,
		MediaType:         capture.MediaPrint,
		Output:            "screenshot.png",
		MatteType:         device.MatteNone,
		MatteColor:        device.MatteColorUnset,
		Device:            DeviceFrame,
		DevicePort:        8001,
		ArtCategory:       device.DefaultArtCategory,
		NavigationTimeout: 30 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// BindFlags registers every setting on fs. Defaults come from c and may be
// overridden by environment variables. Malformed environment values are
// reported by Validate.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", envOrDefaultValue("FRAMESHOT_HOST", c.Host), "TV host or IP")
	fs.StringVar(&c.URL, "url", envOrDefaultValue("FRAMESHOT_URL", c.URL), "URL to capture")
	fs.Var(&millisecondsValue{&c.RenderTime}, "render-time", "How many milliseconds to wait to let the given URL finish rendering")
	fs.IntVar(&c.Width, "width", c.Width, "Screenshot width to capture")
	fs.IntVar(&c.Height, "height", c.Height, "Screenshot height to capture")
	fs.Var(&mediaValue{&c.MediaType}, "media-type", "Media type used to load the page (print, screen or empty for none)")
	fs.StringVar(&c.Output, "output", envOrDefaultValue("FRAMESHOT_OUTPUT", c.Output), "Path the screenshot is written to")
	fs.Var(&matteTypeValue{&c.MatteType}, "matte-type", "Type of matte to use when displaying ("+joinMatteTypes()+")")
	fs.Var(&matteColorValue{&c.MatteColor}, "matte-color", "Color of matte to use when displaying ("+joinMatteColors()+")")
	fs.IntVar(&c.MaxItemsOnDevice, "max-items-on-device", c.MaxItemsOnDevice, "Delete items on the device above this limit (0 keeps everything)")
	fs.StringVar(&c.Device, "device", envOrDefaultValue("FRAMESHOT_DEVICE", c.Device), "Device backend (frame or memory)")
	fs.IntVar(&c.DevicePort, "device-port", c.DevicePort, "Art channel port of the TV (8001, or 8002 for TLS)")
	fs.StringVar(&c.ArtCategory, "art-category", envOrDefaultValue("FRAMESHOT_ART_CATEGORY", c.ArtCategory), "Gallery category considered for eviction")
	fs.StringVar(&c.ChromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", envOrDefaultValue("CHROME_DEVTOOLS_PROTOCOL_URL", c.ChromeDevtoolsProtocolURL), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")
	fs.DurationVar(&c.NavigationTimeout, "navigation-timeout", c.NavigationTimeout, "Timeout applied by the browser to page navigation")
	fs.BoolVar(&c.InstallBrowsers, "install-browsers", c.InstallBrowsers, "Install the playwright chromium build before capturing")
	fs.StringVar(&c.PushgatewayURL, "pushgateway-url", envOrDefaultValue("FRAMESHOT_PUSHGATEWAY_URL", c.PushgatewayURL), "Prometheus Pushgateway to send run metrics to")
	fs.StringVar(&c.LogLevel, "log-level", envOrDefaultValue("FRAMESHOT_LOG_LEVEL", c.LogLevel), "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", envOrDefaultValue("FRAMESHOT_LOG_FORMAT", c.LogFormat), "Log format (console or json)")

	// Typed settings go through the flag parsers so bad values are not dropped.
	for _, e := range typedEnv {
		v, ok := os.LookupEnv(e.key)
		if !ok {
			continue
		}
		if err := fs.Set(e.flag, v); err != nil {
			c.envErrors = append(c.envErrors, xerrors.Errorf("invalid %s=%q: %w", e.key, v, err))
		}
	}
}

var typedEnv = []struct {
	key  string
	flag string
}{
	{"FRAMESHOT_RENDER_TIME", "render-time"},
	{"FRAMESHOT_WIDTH", "width"},
	{"FRAMESHOT_HEIGHT", "height"},
	{"FRAMESHOT_MEDIA_TYPE", "media-type"},
	{"FRAMESHOT_MATTE_TYPE", "matte-type"},
	{"FRAMESHOT_MATTE_COLOR", "matte-color"},
	{"FRAMESHOT_MAX_ITEMS_ON_DEVICE", "max-items-on-device"},
	{"FRAMESHOT_DEVICE_PORT", "device-port"},
	{"FRAMESHOT_NAVIGATION_TIMEOUT", "navigation-timeout"},
	{"FRAMESHOT_INSTALL_BROWSERS", "install-browsers"},
}

func (c *Config) Validate() error {
	if len(c.envErrors) > 0 {
		return errors.Join(c.envErrors...)
	}
	if c.Host == "" && c.Device != DeviceMemory {
		return xerrors.New("host is required")
	}
	if c.URL == "" {
		return xerrors.New("url is required")
	}
	if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" {
		return xerrors.Errorf("url %q must be absolute", c.URL)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return xerrors.Errorf("width and height must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.RenderTime < 0 {
		return xerrors.Errorf("render time must not be negative, got %s", c.RenderTime)
	}
	if c.Output == "" {
		return xerrors.New("output path is required")
	}
	if _, err := device.ParseMatteType(string(c.MatteType)); err != nil {
		return err
	}
	if _, err := device.ParseMatteColor(string(c.MatteColor)); err != nil {
		return err
	}
	switch c.Device {
	case DeviceFrame, DeviceMemory:
	default:
		return xerrors.Errorf("invalid device %q, must be %s or %s", c.Device, DeviceFrame, DeviceMemory)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return xerrors.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

// CaptureRequest is the render stage input described by c.
func (c *Config) CaptureRequest() capture.Request {
	return capture.Request{
		URL:        c.URL,
		Width:      c.Width,
		Height:     c.Height,
		Media:      c.MediaType,
		Delay:      c.RenderTime,
		OutputPath: c.Output,
	}
}

type millisecondsValue struct{ d *time.Duration }

func (v *millisecondsValue) String() string {
	if v.d == nil {
		return ""
	}
	return strconv.FormatInt(v.d.Milliseconds(), 10)
}

func (v *millisecondsValue) Set(s string) error {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return xerrors.Errorf("invalid milliseconds %q", s)
	}
	if ms < 0 {
		return xerrors.Errorf("milliseconds must not be negative, got %d", ms)
	}
	*v.d = time.Duration(ms) * time.Millisecond
	return nil
}

type mediaValue struct{ m *capture.Media }

func (v *mediaValue) String() string {
	if v.m == nil {
		return ""
	}
	return string(*v.m)
}

func (v *mediaValue) Set(s string) error {
	switch m := capture.Media(s); m {
	case capture.MediaUnset, capture.MediaPrint, capture.MediaScreen:
		*v.m = m
		return nil
	}
	return xerrors.Errorf("invalid media type %q, must be print, screen or empty", s)
}

type matteTypeValue struct{ m *device.MatteType }

func (v *matteTypeValue) String() string {
	if v.m == nil {
		return ""
	}
	return string(*v.m)
}

func (v *matteTypeValue) Set(s string) error {
	m, err := device.ParseMatteType(s)
	if err != nil {
		return err
	}
	*v.m = m
	return nil
}

type matteColorValue struct{ c *device.MatteColor }

func (v *matteColorValue) String() string {
	if v.c == nil {
		return ""
	}
	return string(*v.c)
}

func (v *matteColorValue) Set(s string) error {
	c, err := device.ParseMatteColor(s)
	if err != nil {
		return err
	}
	*v.c = c
	return nil
}

func joinMatteTypes() string {
	s := make([]string, 0, len(device.MatteTypes))
	for _, m := range device.MatteTypes {
		s = append(s, string(m))
	}
	return strings.Join(s, ", ")
}

func joinMatteColors() string {
	s := make([]string, 0, len(device.MatteColors))
	for _, c := range device.MatteColors {
		s = append(s, string(c))
	}
	return strings.Join(s, ", ")
}

func envOrDefaultValue(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
