// Package config loads the settings of a text widget.
//
// Settings come from three layers merged in order: built-in defaults, a
// TOML or YAML file, and CKTEXT_* environment variables. The merged map is
// decoded into a Config and validated before anything is applied to an
// engine.Text or display.View.
package config

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/engine/tags"
	"github.com/dshills/cktext/internal/logging"
)

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("config: invalid value")

	// ErrUnknownFormat is returned for files that are neither TOML nor YAML.
	ErrUnknownFormat = errors.New("config: unknown file format")
)

// Wrap modes.
const (
	WrapNone = "none"
	WrapChar = "char"
)

// Config holds every setting.
type Config struct {
	Text    TextConfig    `toml:"text"`
	Colors  ColorsConfig  `toml:"colors"`
	Tags    []TagConfig   `toml:"tags"`
	History HistoryConfig `toml:"history"`
	Log     LogConfig     `toml:"log"`
}

// TextConfig is the [text] section.
type TextConfig struct {
	State           string `toml:"state"`
	TabWidth        int    `toml:"tab_width"`
	Wrap            string `toml:"wrap"`
	ExportSelection bool   `toml:"exportselection"`
	Width           int    `toml:"width"`
	Height          int    `toml:"height"`
	CharMode        bool   `toml:"char_mode"`
}

// ColorsConfig is the [colors] section. Empty values inherit from the
// terminal.
type ColorsConfig struct {
	Fg       string `toml:"fg"`
	Bg       string `toml:"bg"`
	Attr     string `toml:"attr"`
	SelFg    string `toml:"sel_fg"`
	SelBg    string `toml:"sel_bg"`
	SelAttr  string `toml:"sel_attr"`
	InsertFg string `toml:"insert_fg"`
}

// TagConfig is one [[tags]] preset.
type TagConfig struct {
	Name     string `toml:"name"`
	Fg       string `toml:"fg"`
	Bg       string `toml:"bg"`
	Attr     string `toml:"attr"`
	Priority *int   `toml:"priority"`
}

// HistoryConfig is the [history] section.
type HistoryConfig struct {
	Undo           bool `toml:"undo"`
	MaxEntries     int  `toml:"max_entries"`
	AutoSeparators bool `toml:"auto_separators"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	Level string `toml:"level"`
}

// Defaults returns the built-in settings as a map, the bottom layer of
// every load.
func Defaults() map[string]any {
	return map[string]any{
		"text": map[string]any{
			"state":           "normal",
			"tab_width":       8,
			"wrap":            WrapChar,
			"exportselection": true,
			"width":           80,
			"height":          24,
			"char_mode":       true,
		},
		"colors": map[string]any{
			"sel_attr": "reverse",
		},
		"history": map[string]any{
			"undo":            true,
			"max_entries":     engine.DefaultMaxUndoEntries,
			"auto_separators": true,
		},
		"log": map[string]any{
			"level": "info",
		},
	}
}

// Default returns the decoded built-in settings.
func Default() *Config {
	cfg, err := Decode(Defaults())
	if err != nil {
		panic(fmt.Sprintf("config: bad defaults: %v", err))
	}
	return cfg
}

// Decode converts a merged settings map into a Config. Unknown keys are
// errors.
func Decode(m map[string]any) (*Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, sme.String())
		}
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &cfg, nil
}

// Validate checks every value that has a fixed vocabulary or range.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, err := engine.ParseState(c.Text.State); err != nil {
		bad("text.state %q", c.Text.State)
	}
	if c.Text.TabWidth < 1 {
		bad("text.tab_width %d must be positive", c.Text.TabWidth)
	}
	if c.Text.Wrap != WrapNone && c.Text.Wrap != WrapChar {
		bad("text.wrap %q must be %q or %q", c.Text.Wrap, WrapNone, WrapChar)
	}
	if c.Text.Width < 1 || c.Text.Height < 1 {
		bad("text size %dx%d", c.Text.Width, c.Text.Height)
	}
	if !c.Text.CharMode {
		bad("text.char_mode must be true; byte indices are not supported")
	}

	for key, s := range map[string]string{
		"colors.fg": c.Colors.Fg, "colors.bg": c.Colors.Bg,
		"colors.sel_fg": c.Colors.SelFg, "colors.sel_bg": c.Colors.SelBg,
		"colors.insert_fg": c.Colors.InsertFg,
	} {
		if _, err := tags.ParseColor(s); err != nil {
			bad("%s: %v", key, err)
		}
	}
	for key, s := range map[string]string{
		"colors.attr": c.Colors.Attr, "colors.sel_attr": c.Colors.SelAttr,
	} {
		if _, err := tags.ParseAttr(s); err != nil {
			bad("%s: %v", key, err)
		}
	}

	seen := make(map[string]bool)
	for i, tc := range c.Tags {
		if tc.Name == "" {
			bad("tags[%d] has no name", i)
			continue
		}
		if seen[tc.Name] {
			bad("tag %q defined twice", tc.Name)
		}
		seen[tc.Name] = true
		if _, err := tc.Style(); err != nil {
			bad("tag %q: %v", tc.Name, err)
		}
		if tc.Priority != nil && *tc.Priority < 0 {
			bad("tag %q priority %d", tc.Name, *tc.Priority)
		}
	}

	if c.History.MaxEntries < 0 {
		bad("history.max_entries %d", c.History.MaxEntries)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		bad("log.level: %v", err)
	}
	return errors.Join(errs...)
}

// Style parses the preset's attributes.
func (tc TagConfig) Style() (tags.Style, error) {
	return parseStyle(tc.Fg, tc.Bg, tc.Attr)
}

func parseStyle(fg, bg, attr string) (tags.Style, error) {
	var s tags.Style
	var err error
	if s.Fg, err = tags.ParseColor(fg); err != nil {
		return tags.Unset(), err
	}
	if s.Bg, err = tags.ParseColor(bg); err != nil {
		return tags.Unset(), err
	}
	if s.Attr, err = tags.ParseAttr(attr); err != nil {
		return tags.Unset(), err
	}
	return s, nil
}
