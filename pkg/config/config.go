// Package config collects the runtime knobs of the irc tool from the
// environment. Command line flags are applied on top by the caller.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/xyproto/env/v2"

	"toyir/pkg/vm"
)

const (
	EnvMaxSteps   = "IRC_MAX_STEPS"
	EnvDebug      = "IRC_DEBUG"
	EnvTrace      = "IRC_TRACE"
	EnvLogJSON    = "IRC_LOG_JSON"
	EnvTableStyle = "IRC_TABLE_STYLE"
	EnvHistory    = "IRC_HISTORY"
	EnvNoColor    = "IRC_NO_COLOR"
)

const historyName = ".irc_history"

type Config struct {
	MaxSteps    int
	Debug       bool
	Trace       bool
	LogJSON     bool
	TableStyle  string
	HistoryFile string
	NoColor     bool
}

// Load reads the IRC_* environment variables, falling back to defaults for
// anything unset or unparsable. The env cache is refreshed first so that
// variables set since the last call are seen.
func Load() Config {
	env.Load()
	c := Config{
		MaxSteps:    env.Int(EnvMaxSteps, vm.DefaultMaxSteps),
		Debug:       env.Bool(EnvDebug),
		Trace:       env.Bool(EnvTrace),
		LogJSON:     env.Bool(EnvLogJSON),
		TableStyle:  strings.ToLower(env.Str(EnvTableStyle, "light")),
		HistoryFile: env.Str(EnvHistory),
		NoColor:     env.Bool(EnvNoColor),
	}
	if c.HistoryFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.HistoryFile = filepath.Join(home, historyName)
		}
	}
	if c.MaxSteps < 0 {
		c.MaxSteps = 0
	}
	return c
}

// Level is the lowest log level that gets through: trace implies debug.
func (c Config) Level() slog.Level {
	switch {
	case c.Trace:
		return vm.LevelTrace
	case c.Debug:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

var styles = map[string]table.Style{
	"light":   table.StyleLight,
	"rounded": table.StyleRounded,
	"bold":    table.StyleBold,
	"colored": table.StyleColoredBright,
	"default": table.StyleDefault,
}

// Style maps TableStyle to a go-pretty style. Unknown names, and colored
// output when colors are off, give StyleLight.
func (c Config) Style() table.Style {
	s, ok := styles[c.TableStyle]
	if !ok || (c.NoColor && c.TableStyle == "colored") {
		return table.StyleLight
	}
	return s
}
