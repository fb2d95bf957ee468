package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atomicstack/billboard/internal/app"
	"github.com/atomicstack/billboard/internal/router"
	"github.com/atomicstack/billboard/internal/ui"
)

// Config captures runtime configuration for the application.
type Config struct {
	App      app.Config
	Logging  Logging
	Features Features
	Flags    map[string]string
	Args     []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

type Features struct {
	Verbose bool
}

const (
	envListen      = "BILLBOARD_LISTEN"
	envConnect     = "BILLBOARD_CONNECT"
	envTheme       = "BILLBOARD_THEME"
	envAssetName   = "BILLBOARD_ASSET_NAME"
	envExportScale = "BILLBOARD_EXPORT_SCALE"
	envAckCaptures = "BILLBOARD_ACK_CAPTURES"
	envLoadTimeout = "BILLBOARD_LOAD_TIMEOUT"
	envPanelWidth  = "BILLBOARD_PANEL_WIDTH"
	envPanelHeight = "BILLBOARD_PANEL_HEIGHT"
	envWidth       = "BILLBOARD_WIDTH"
	envHeight      = "BILLBOARD_HEIGHT"
	envVerbose     = "BILLBOARD_VERBOSE"
	envTrace       = "BILLBOARD_TRACE"
	envLogFile     = "BILLBOARD_LOG_FILE"
)

var ErrListenAndConnect = errors.New("-listen and -connect are mutually exclusive")

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("billboard", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	listen := fs.String("listen", envOrDefault(env, envListen, ""), "serve the plugin on this address and wait for a panel to connect")
	connect := fs.String("connect", envOrDefault(env, envConnect, ""), "run only the panel, attached to a plugin at this ws:// URL")
	themeName := fs.String("theme", envOrDefault(env, envTheme, "dark"), "initial host theme (light or dark)")
	assetName := fs.String("asset-name", envOrDefault(env, envAssetName, router.DefaultAssetName), "name given to uploaded capture images")
	exportScale := fs.Float64("export-scale", envOrFloat(env, envExportScale, router.DefaultExportScale), "scale factor used when exporting the selection")
	ack := fs.Bool("ack-captures", envOrBool(env, envAckCaptures, false), "report capture results back to the panel")
	loadTimeout := fs.Duration("load-timeout", envOrDuration(env, envLoadTimeout, ui.DefaultLoadTimeout), "how long the panel waits for a selection to load")
	panelWidth := fs.Int("panel-width", envOrInt(env, envPanelWidth, 0), "panel width requested from the host (0 uses the default)")
	panelHeight := fs.Int("panel-height", envOrInt(env, envPanelHeight, 0), "panel height requested from the host (0 uses the default)")
	width := fs.Int("width", envOrInt(env, envWidth, 0), "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, 0), "desired viewport height in rows (0 uses terminal height)")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	verbose := fs.Bool("verbose", envOrBool(env, envVerbose, false), "show the full key map in the panel footer")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	for name, v := range map[string]int{
		"width":        *width,
		"height":       *height,
		"panel-width":  *panelWidth,
		"panel-height": *panelHeight,
	} {
		if v < 0 {
			return Config{}, fmt.Errorf("%s must be >= 0 (got %d)", name, v)
		}
	}
	if *exportScale <= 0 {
		return Config{}, fmt.Errorf("export-scale must be > 0 (got %g)", *exportScale)
	}
	if *loadTimeout <= 0 {
		return Config{}, fmt.Errorf("load-timeout must be > 0 (got %s)", *loadTimeout)
	}

	cfg := Config{
		App: app.Config{
			Listen:      strings.TrimSpace(*listen),
			Connect:     strings.TrimSpace(*connect),
			Theme:       *themeName,
			AssetName:   *assetName,
			ExportScale: *exportScale,
			AckCaptures: *ack,
			LoadTimeout: *loadTimeout,
			PanelWidth:  *panelWidth,
			PanelHeight: *panelHeight,
			Width:       *width,
			Height:      *height,
			Verbose:     *verbose,
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Features: Features{
			Verbose: *verbose,
		},
		Flags: map[string]string{
			"listen":      *listen,
			"connect":     *connect,
			"theme":       *themeName,
			"assetName":   *assetName,
			"exportScale": strconv.FormatFloat(*exportScale, 'g', -1, 64),
			"ackCaptures": strconv.FormatBool(*ack),
			"loadTimeout": loadTimeout.String(),
			"panelWidth":  strconv.Itoa(*panelWidth),
			"panelHeight": strconv.Itoa(*panelHeight),
			"width":       strconv.Itoa(*width),
			"height":      strconv.Itoa(*height),
			"trace":       strconv.FormatBool(*trace),
			"verbose":     strconv.FormatBool(*verbose),
			"logFile":     *logFile,
		},
		Args: append([]string(nil), args...),
	}

	return cfg, nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrFloat(env map[string]string, key string, fallback float64) float64 {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate checks option combinations that flag parsing alone cannot.
func Validate(cfg Config) error {
	if cfg.App.Listen != "" && cfg.App.Connect != "" {
		return ErrListenAndConnect
	}
	if cfg.App.Connect != "" {
		u, err := url.Parse(cfg.App.Connect)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("connect: expected a ws:// or wss:// URL, got %q", cfg.App.Connect)
		}
		if u.Host == "" {
			return fmt.Errorf("connect: missing host in %q", cfg.App.Connect)
		}
	}
	return nil
}
