package main

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/cktext/internal/config"
	"github.com/dshills/cktext/internal/display"
	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/engine/marks"
	"github.com/dshills/cktext/internal/logging"
)

// editor turns terminal events into text operations.
type editor struct {
	text   *engine.Text
	view   *display.View
	screen tcell.Screen
	log    *logging.Logger
}

// moves maps cursor keys to the index expression giving the new insert
// position.
var moves = map[tcell.Key]string{
	tcell.KeyLeft:  "insert - 1 chars",
	tcell.KeyRight: "insert + 1 chars",
	tcell.KeyUp:    "insert - 1 lines",
	tcell.KeyDown:  "insert + 1 lines",
	tcell.KeyHome:  "insert linestart",
	tcell.KeyEnd:   "insert lineend",
}

// runView runs the terminal event loop until the user quits or ctx is
// done. Config reloads arriving on reloads are applied between events.
func runView(ctx context.Context, screen tcell.Screen, text *engine.Text, cfg *config.Config, reloads <-chan config.Reload, log *logging.Logger) error {
	idle := &display.Idle{}
	width, height := screen.Size()
	opts := append(cfg.ViewOptions(),
		display.WithRect(0, 0, width, height),
		display.WithScheduler(idle),
		display.WithLogger(log),
	)
	ed := &editor{
		text:   text,
		view:   display.New(text, screen, opts...),
		screen: screen,
		log:    log.WithComponent("view"),
	}
	defer ed.view.Destroy()

	events := make(chan tcell.Event)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		for idle.Run() > 0 {
		}

		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ed.handle(ev) {
				return nil
			}
		case r := <-reloads:
			if r.Err != nil {
				ed.log.Warn("config reload: %v", r.Err)
				continue
			}
			if err := r.Config.Apply(text); err != nil {
				ed.log.Warn("config reload: %v", err)
				continue
			}
			r.Config.ApplyView(ed.view)
			log.SetLevel(r.Config.LogLevel())
			ed.log.Info("config reloaded")
		}
	}
}

// handle processes one event and reports whether to quit.
func (ed *editor) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return ed.key(ev)
	case *tcell.EventMouse:
		x, y := ev.Position()
		ed.view.PointerMoved(x, y)
		if ev.Buttons()&tcell.Button1 != 0 {
			if idx, ok := ed.view.IndexAt(x, y); ok {
				ed.text.MarkSet(marks.Insert, idx)
			}
		}
	case *tcell.EventResize:
		ed.screen.Sync()
		width, height := ed.screen.Size()
		ed.view.Resize(0, 0, width, height)
		ed.see()
	}
	return false
}

func (ed *editor) key(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlQ:
		return true
	case tcell.KeyRune:
		ed.text.Insert(ed.at("insert"), string(ev.Rune()))
	case tcell.KeyEnter:
		ed.text.Insert(ed.at("insert"), "\n")
	case tcell.KeyTab:
		ed.text.Insert(ed.at("insert"), "\t")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		ed.text.Delete(ed.at("insert - 1 chars"), ed.at("insert"))
	case tcell.KeyDelete:
		ed.text.Delete(ed.at("insert"), ed.at("insert + 1 chars"))
	case tcell.KeyCtrlZ:
		ed.history(ed.text.EditUndo())
	case tcell.KeyCtrlY:
		ed.history(ed.text.EditRedo())
	default:
		expr, ok := moves[ev.Key()]
		if !ok {
			return false
		}
		ed.text.MarkSet(marks.Insert, ed.at(expr))
	}
	ed.see()
	return false
}

func (ed *editor) history(err error) {
	if err == nil || errors.Is(err, engine.ErrNothingToUndo) || errors.Is(err, engine.ErrNothingToRedo) {
		return
	}
	ed.log.Debug("history: %v", err)
}

func (ed *editor) see() {
	ed.view.See(ed.at("insert"))
}

// at evaluates one of the fixed expressions above, which cannot fail.
func (ed *editor) at(expr string) engine.Index {
	return ed.text.MustIndex(expr)
}
