// Package main is the entry point of cktext.
//
// cktext builds a text from a snapshot or from scratch, runs Lua scripts
// against it, and then prints it, dumps it as JSON, or shows it in an
// interactive terminal view.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/dshills/cktext/internal/config"
	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/logging"
	"github.com/dshills/cktext/internal/script"
	"github.com/dshills/cktext/internal/snapshot"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath  string
	logLevel    string
	logFile     string
	restorePath string
	code        string
	dump        bool
	view        bool
	scripts     []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// execute does everything but flag parsing, writing results to out.
func execute(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel()
	if opts.logLevel != "" {
		if level, err = logging.ParseLevel(opts.logLevel); err != nil {
			return err
		}
	}
	logOut, closeLog, err := openLog(opts)
	if err != nil {
		return err
	}
	defer closeLog()
	log := logging.New(logOut, level, "cktext")

	text, err := newText(opts, cfg, log)
	if err != nil {
		return err
	}

	if opts.code != "" || len(opts.scripts) > 0 {
		st := script.New(
			script.WithOutput(out),
			script.WithLogger(log),
			script.WithEngineOptions(cfg.EngineOptions()...),
		)
		defer st.Close()
		st.Bind("doc", text)
		if opts.code != "" {
			if err := st.DoString(ctx, opts.code); err != nil {
				return err
			}
		}
		for _, path := range opts.scripts {
			if err := st.DoFile(ctx, path); err != nil {
				return err
			}
		}
	}

	switch {
	case opts.view:
		return view(ctx, opts, cfg, text, log)
	case opts.dump:
		data, err := snapshot.Encode(text)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	case opts.code == "" && len(opts.scripts) == 0:
		_, err := io.WriteString(out, text.String())
		return err
	}
	return nil
}

// newText restores the text from a snapshot or creates an empty one, then
// applies the configured colors and tags.
func newText(opts options, cfg *config.Config, log *logging.Logger) (*engine.Text, error) {
	engineOpts := append(cfg.EngineOptions(), engine.WithLogger(log))

	var text *engine.Text
	if opts.restorePath != "" {
		data, err := os.ReadFile(opts.restorePath)
		if err != nil {
			return nil, err
		}
		snap, err := snapshot.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.restorePath, err)
		}
		// The snapshot's own state wins over the configured one.
		if text, err = snap.Restore(engineOpts...); err != nil {
			return nil, fmt.Errorf("%s: %w", opts.restorePath, err)
		}
		state := text.State()
		if err := cfg.Apply(text); err != nil {
			return nil, err
		}
		text.SetState(state)
		return text, nil
	}

	text = engine.New(engineOpts...)
	if err := cfg.Apply(text); err != nil {
		return nil, err
	}
	return text, nil
}

// openLog picks where log lines go. The terminal view owns the screen, so
// without a log file its logging is discarded.
func openLog(opts options) (io.Writer, func(), error) {
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	if opts.view {
		return io.Discard, func() {}, nil
	}
	return os.Stderr, func() {}, nil
}

func view(ctx context.Context, opts options, cfg *config.Config, text *engine.Text, log *logging.Logger) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("-view needs a terminal")
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	var reloads <-chan config.Reload
	if opts.configPath != "" {
		w, err := config.NewWatcher(opts.configPath, config.DefaultDebounce)
		if err != nil {
			log.Warn("not watching %s: %v", opts.configPath, err)
		} else {
			defer w.Close()
			reloads = w.Reloads()
		}
	}
	return runView(ctx, screen, text, cfg, reloads, log)
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to a TOML or YAML configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to a configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	flag.StringVar(&opts.logFile, "log-file", "", "Append log lines to this file")
	flag.StringVar(&opts.restorePath, "restore", "", "Start from a JSON snapshot written by -dump")
	flag.StringVar(&opts.code, "e", "", "Lua code to run; the text is the global doc")
	flag.BoolVar(&opts.dump, "dump", false, "Print the text as a JSON snapshot")
	flag.BoolVar(&opts.view, "view", false, "Show the text in an interactive terminal view")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "cktext - terminal text widget engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: cktext [options] [script.lua...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cktext -e 'doc:insert(\"end\", \"hello\")'     Print the result of a script\n")
		fmt.Fprintf(os.Stderr, "  cktext -dump build.lua > doc.json          Save a snapshot\n")
		fmt.Fprintf(os.Stderr, "  cktext -restore doc.json -view             Edit a snapshot in the terminal\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("cktext %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		if _, err := logging.ParseLevel(opts.logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
			os.Exit(1)
		}
	}

	opts.scripts = flag.Args()
	return opts
}
