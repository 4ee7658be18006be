package config

import (
	"github.com/dshills/cktext/internal/display"
	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/engine/tags"
	"github.com/dshills/cktext/internal/logging"
)

// The methods below assume c has passed Validate; invalid values fall back
// to unset attributes.

// EngineOptions returns the options for creating an engine.Text.
func (c *Config) EngineOptions() []engine.Option {
	state, _ := engine.ParseState(c.Text.State)
	return []engine.Option{
		engine.WithState(state),
		engine.WithUndo(c.History.Undo),
		engine.WithMaxUndoEntries(c.History.MaxEntries),
		engine.WithAutoSeparators(c.History.AutoSeparators),
		engine.WithExportSelection(c.Text.ExportSelection),
	}
}

// Apply sets the widget colors, the selection colors, the tag presets, the
// state and export selection of a running text. Tags not named in c are
// left alone.
func (c *Config) Apply(t *engine.Text) error {
	t.SetDefaults(c.DefaultStyle())
	t.TagConfigure(tags.SelTag, c.SelectionStyle())
	for _, tc := range c.Tags {
		style, err := tc.Style()
		if err != nil {
			return err
		}
		t.TagConfigure(tc.Name, style)
		if tc.Priority != nil {
			if err := t.TagSetPriority(tc.Name, *tc.Priority); err != nil {
				return err
			}
		}
	}
	state, err := engine.ParseState(c.Text.State)
	if err != nil {
		return err
	}
	t.SetState(state)
	t.SetExportSelection(c.Text.ExportSelection)
	return nil
}

// DefaultStyle is the widget's own style from [colors].
func (c *Config) DefaultStyle() tags.Style {
	s, _ := parseStyle(c.Colors.Fg, c.Colors.Bg, c.Colors.Attr)
	return s
}

// SelectionStyle is the style of the sel tag from [colors].
func (c *Config) SelectionStyle() tags.Style {
	s, _ := parseStyle(c.Colors.SelFg, c.Colors.SelBg, c.Colors.SelAttr)
	return s
}

// InsertStyle is drawn over the character under the insert mark.
func (c *Config) InsertStyle() tags.Style {
	s, _ := parseStyle(c.Colors.InsertFg, "", "")
	if s.Fg == tags.ColorUnset {
		s.Attr = tags.AttrReverse
	}
	return s
}

// ViewOptions returns the options for creating a display.View.
func (c *Config) ViewOptions() []display.Option {
	return []display.Option{
		display.WithTabWidth(c.Text.TabWidth),
		display.WithWrap(c.Text.Wrap == WrapChar),
		display.WithInsertStyle(c.InsertStyle()),
	}
}

// ApplyView updates a running view.
func (c *Config) ApplyView(v *display.View) {
	v.SetTabWidth(c.Text.TabWidth)
	v.SetWrap(c.Text.Wrap == WrapChar)
	v.SetInsertStyle(c.InsertStyle())
}

// LogLevel returns the configured level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}
