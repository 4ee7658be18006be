// Package script drives text engines from Lua.
//
// A State is a sandboxed gopher-lua interpreter with a "text" module:
//
//	local t = text.new("hello world")
//	t:tag_add("sel", "1.0", "1.0 wordend")
//	print(t:get("sel.first", "sel.last"))
//
// Every position argument is an index string as accepted by
// engine.Text.Index, and every position result is printed the same way,
// so scripts see exactly the textual protocol of the widget command layer.
// A State is not safe for concurrent use.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/logging"
)

// DefaultTimeout bounds one DoString or DoFile call.
const DefaultTimeout = 5 * time.Second

// Errors returned by State.
var (
	// ErrStateClosed is returned when using a closed state.
	ErrStateClosed = errors.New("script: state is closed")

	// ErrTimeout is returned when a script runs longer than its timeout.
	ErrTimeout = errors.New("script: execution timeout")
)

// Option configures a State.
type Option func(*State)

// WithOutput sends print output to w instead of os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *State) { s.out = w }
}

// WithTimeout bounds each run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *State) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *State) { s.log = l }
}

// WithEngineOptions sets the options text.new passes to engine.New.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *State) { s.engineOpts = opts }
}

// State is a Lua interpreter bound to text engines.
type State struct {
	L *lua.LState

	out        io.Writer
	timeout    time.Duration
	log        *logging.Logger
	engineOpts []engine.Option

	texts  []*engine.Text
	closed bool
}

// New creates a sandboxed state with the text module installed.
func New(opts ...Option) *State {
	s := &State{
		out:     os.Stdout,
		timeout: DefaultTimeout,
		log:     logging.Null(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("script")

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	s.sandbox()
	s.registerTextModule()
	return s
}

// openSafeLibraries opens the libraries without file, process or debug
// access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes ways of loading code from outside and captures print.
func (s *State) sandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.L.SetGlobal("print", s.L.NewFunction(s.print))
}

func (s *State) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(s.out, strings.Join(parts, "\t"))
	return 0
}

// Bind makes t available to scripts as the global name.
func (s *State) Bind(name string, t *engine.Text) {
	s.L.SetGlobal(name, s.wrap(t))
}

// Texts returns every text bound or created so far, in creation order.
func (s *State) Texts() []*engine.Text {
	return s.texts
}

// DoString runs a chunk of Lua code.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.run(ctx, func() error { return s.L.DoString(code) })
}

// DoFile runs the Lua file at path.
func (s *State) DoFile(ctx context.Context, path string) error {
	return s.run(ctx, func() error { return s.L.DoFile(path) })
}

func (s *State) run(ctx context.Context, fn func() error) (err error) {
	if s.closed {
		return ErrStateClosed
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	err = fn()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if err != nil {
		s.log.Debug("script failed: %v", err)
	}
	return err
}

// Close releases the interpreter.
func (s *State) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}
