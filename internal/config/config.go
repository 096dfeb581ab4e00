package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// strip geometry, all sizes in pixels
	LayoutClassic = "classic"
	LayoutLarge   = "large"

	// capture
	JPEGQuality  = 90
	MaxPhotos    = 3
	StripPhotos  = 3
	ComposeDelay = 500 * time.Millisecond

	// countdown
	CountdownStep = 1000 * time.Millisecond

	// camera
	CameraWidth          = 1280
	CameraHeight         = 720
	CameraAcquireTimeout = 10 * time.Second

	// mirror policies
	MirrorFrontOnly = "front-only"
	MirrorAlways    = "always"
	MirrorNever     = "never"

	// Path
	PathStripOut = "photo-booth.jpg"
	PathPrefsDB  = "photobooth.db"
	PathLogFile  = "photobooth.log"

	DefaultFilter = "2000s"
	DefaultDriver = "mediadevices"
)

var CountdownSteps = []string{"3", "2", "1", "Smile!"}

type Config struct {
	Camera    Camera    `yaml:"camera"`
	Capture   Capture   `yaml:"capture"`
	Countdown Countdown `yaml:"countdown"`
	Session   Session   `yaml:"session"`
	Strip     Strip     `yaml:"strip"`
	Prefs     Prefs     `yaml:"prefs"`
	Filter    Filter    `yaml:"filter"`
}

type Camera struct {
	Driver         string        `yaml:"driver"`
	FrontDevice    string        `yaml:"front_device"`
	RearDevice     string        `yaml:"rear_device"`
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

type Capture struct {
	Quality int    `yaml:"quality"`
	Mirror  string `yaml:"mirror"`
}

type Countdown struct {
	Steps []string      `yaml:"steps"`
	Step  time.Duration `yaml:"step"`
}

type Session struct {
	MaxPhotos    int           `yaml:"max_photos"`
	ComposeDelay time.Duration `yaml:"compose_delay"`
}

type Strip struct {
	Layout string `yaml:"layout"`
	Output string `yaml:"output"`
}

type Prefs struct {
	Path string `yaml:"path"`
}

type Filter struct {
	Default string `yaml:"default"`
}

func Default() Config {
	steps := make([]string, len(CountdownSteps))
	copy(steps, CountdownSteps)
	return Config{
		Camera: Camera{
			Driver:         DefaultDriver,
			FrontDevice:    "/dev/video0",
			RearDevice:     "/dev/video1",
			Width:          CameraWidth,
			Height:         CameraHeight,
			AcquireTimeout: CameraAcquireTimeout,
		},
		Capture:   Capture{Quality: JPEGQuality, Mirror: MirrorFrontOnly},
		Countdown: Countdown{Steps: steps, Step: CountdownStep},
		Session:   Session{MaxPhotos: MaxPhotos, ComposeDelay: ComposeDelay},
		Strip:     Strip{Layout: LayoutClassic, Output: PathStripOut},
		Prefs:     Prefs{Path: PathPrefsDB},
		Filter:    Filter{Default: DefaultFilter},
	}
}

// Load reads a yaml config on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Capture.Quality < 1 || c.Capture.Quality > 100 {
		return fmt.Errorf("capture.quality must be in 1..100, got %d", c.Capture.Quality)
	}
	switch c.Capture.Mirror {
	case MirrorFrontOnly, MirrorAlways, MirrorNever:
	default:
		return fmt.Errorf("capture.mirror: unknown policy %q", c.Capture.Mirror)
	}
	if c.Session.MaxPhotos < StripPhotos {
		return fmt.Errorf("session.max_photos must be >= %d, got %d", StripPhotos, c.Session.MaxPhotos)
	}
	if c.Session.ComposeDelay < 0 {
		return fmt.Errorf("session.compose_delay must not be negative")
	}
	switch c.Strip.Layout {
	case LayoutClassic, LayoutLarge:
	default:
		return fmt.Errorf("strip.layout: unknown preset %q", c.Strip.Layout)
	}
	if len(c.Countdown.Steps) == 0 {
		return fmt.Errorf("countdown.steps must not be empty")
	}
	if c.Countdown.Step < 0 {
		return fmt.Errorf("countdown.step must not be negative")
	}
	if c.Camera.AcquireTimeout <= 0 {
		return fmt.Errorf("camera.acquire_timeout must be positive")
	}
	return nil
}
