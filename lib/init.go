package aiwallpaperlib

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/awused/awconf"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// Directory holding one pending wallpaper per display, consumed on the
	// next run.
	QueueDir string
	// Optional directory for timestamped copies of everything generated.
	SaveDir string
	// WIDTHxHEIGHT requested from the image API.
	Resolution string
	// Wallpaper setting tool, or "auto" to try them in preference order.
	Tool string
	// One prompt per line, used by the random command.
	PromptsFile string
	// Directory for the persistent prompt picker's database.
	DatabaseDir  string
	LogFile      string
	MaxLogSizeMB int
	// Gemini model used for prompt enhancement.
	GeminiModel string
	// Bound on every remote call so one stalled request can't stall the run.
	FetchTimeoutSecs int
}

const (
	DefaultQueueDir   = "./queued-images"
	DefaultResolution = "2048x1152"
	DefaultTool       = "auto"
	DefaultModel      = "gemini-1.5-flash"
	defaultTimeout    = 30
	defaultLogSizeMB  = 10
)

// EnhancerKeyVar is read once at startup. When unset enhancement is
// silently disabled.
const EnhancerKeyVar = "GEMINI_API_KEY"

// Init loads aiwall.toml if one exists. The config file is entirely
// optional; every field has a default and the flags override everything,
// so a load failure only costs the user their defaults.
func Init() *Config {
	c := &Config{}

	if err := awconf.LoadConfig("aiwall", c); err != nil {
		log.Printf("No config file loaded, using defaults: %v", err)
		c = &Config{}
	}

	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.QueueDir == "" {
		c.QueueDir = DefaultQueueDir
	}
	if c.Resolution == "" {
		c.Resolution = DefaultResolution
	}
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.GeminiModel == "" {
		c.GeminiModel = DefaultModel
	}
	if c.FetchTimeoutSecs <= 0 {
		c.FetchTimeoutSecs = defaultTimeout
	}
	if c.MaxLogSizeMB <= 0 {
		c.MaxLogSizeMB = defaultLogSizeMB
	}
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// SetupLogging routes the standard logger through a rotating log file when
// one is configured. Stdout is left alone otherwise.
func (c *Config) SetupLogging() {
	if c.LogFile == "" {
		return
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:   c.LogFile,
		MaxSize:    c.MaxLogSizeMB,
		MaxBackups: 2,
	})
}

// ParseResolution parses a WIDTHxHEIGHT string. Both dimensions must be
// positive.
func ParseResolution(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf(
			"Invalid resolution [%s], expected WIDTHxHEIGHT", s)
	}

	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("Invalid resolution width [%s]", parts[0])
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("Invalid resolution height [%s]", parts[1])
	}

	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf(
			"Resolution [%s] must have positive dimensions", s)
	}

	return w, h, nil
}

// ReadPromptsFile reads one prompt per line, skipping blanks and '#'
// comments.
func ReadPromptsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var prompts []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}

	return prompts, nil
}
