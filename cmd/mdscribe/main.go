// Package main is the entry point for mdscribe.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dshills/mdscribe/internal/app"
	"github.com/dshills/mdscribe/internal/config"
	"github.com/dshills/mdscribe/internal/render"
	"github.com/dshills/mdscribe/internal/voice"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the parsed command line.
type options struct {
	configPath string
	logLevel   string
	applies    listFlag
	says       listFlag
	transcript string
	script     string
	savePath   string
	write      bool
	exportPath string
	render     bool
	watch      bool
	file       string
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}

	application, err := app.New(cfg)
	if err != nil {
		return report(app.AlertFor(err))
	}
	defer application.Close()

	// Handle signals for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.file != "" {
		if _, err := application.Open(ctx, opts.file); err != nil {
			if opts.render {
				fmt.Print(render.ErrorPage(err))
			}
			return report(application.Report(err))
		}
	} else {
		application.NewDocument()
	}

	if err := edit(ctx, application, opts); err != nil {
		return report(application.Report(err))
	}
	if err := output(ctx, application, opts); err != nil {
		return report(application.Report(err))
	}

	if opts.watch {
		application.Logger().Info("watching for external changes")
		if err := application.Watch(ctx); err != nil {
			return report(application.Report(err))
		}
	}
	return 0
}

// edit applies the requested commands, utterances, transcript and script to
// the active document, in that order.
func edit(ctx context.Context, application *app.App, opts options) error {
	s, err := application.Active()
	if err != nil {
		return err
	}

	for _, arg := range opts.applies {
		name, n, err := parseApply(arg)
		if err != nil {
			return err
		}
		if _, err := s.ApplyName(ctx, name, n); err != nil {
			return app.NewOperationError("apply", name, err)
		}
	}

	for _, utterance := range opts.says {
		if _, err := s.Say(ctx, utterance); err != nil {
			return app.NewOperationError("say", utterance, err)
		}
	}

	if opts.transcript != "" {
		if err := listen(ctx, application, opts.transcript); err != nil {
			return err
		}
	}

	if opts.script != "" {
		if err := application.RunScript(ctx, opts.script); err != nil {
			return err
		}
	}
	return nil
}

func listen(ctx context.Context, application *app.App, path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return app.NewOperationError("listen", path, err)
		}
		defer f.Close()
		r = f
	}

	if application.Logger().Level() <= app.LogLevelDebug {
		s, _ := application.Active()
		log := application.Logger().WithComponent("voice")
		s.OnPreview(func(text string, action voice.Action) {
			log.Debug("partial %q (%s)", text, action.Kind)
		})
	}

	marker := application.Config().Voice.PartialMarker
	return application.Listen(ctx, voice.NewLineSource(r, voice.WithPartialMarker(marker)))
}

// output saves, exports, or prints the active document. With no output flag
// the markdown text is written to stdout.
func output(ctx context.Context, application *app.App, opts options) error {
	switch {
	case opts.savePath != "":
		if err := application.SaveAs(ctx, opts.savePath); err != nil {
			return err
		}
	case opts.write:
		if err := application.Save(ctx); err != nil {
			return err
		}
	}

	if opts.exportPath != "" {
		path := opts.exportPath
		if path == "auto" {
			path = ""
		}
		written, err := application.Export(ctx, path)
		if err != nil {
			return err
		}
		application.Logger().Info("wrote %s", written)
	}

	if opts.render {
		page, err := application.Preview(ctx)
		if err != nil {
			return err
		}
		fmt.Print(page)
		return nil
	}

	if opts.savePath == "" && !opts.write && opts.exportPath == "" && !opts.watch {
		s, err := application.Active()
		if err != nil {
			return err
		}
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Print(snap.Text)
	}
	return nil
}

// parseApply splits "name" or "name:n" into a command name and repeat count.
func parseApply(arg string) (string, int, error) {
	name, count, ok := strings.Cut(arg, ":")
	if !ok {
		return name, 1, nil
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 1 {
		return "", 0, fmt.Errorf("invalid repeat count in %q", arg)
	}
	return name, n, nil
}

func loadConfig(opts options) (config.Config, error) {
	var loadOpts []config.Option
	if opts.configPath != "" {
		if _, err := os.Stat(opts.configPath); err != nil {
			return config.Config{}, err
		}
		loadOpts = append(loadOpts, config.WithPath(opts.configPath))
	}

	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return config.Config{}, describeConfigError(err)
	}
	return applyOverrides(cfg, opts)
}

// applyOverrides layers command line flags over the loaded configuration.
func applyOverrides(cfg config.Config, opts options) (config.Config, error) {
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.watch {
		cfg.Watch.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, describeConfigError(err)
	}
	return cfg, nil
}

// describeConfigError quotes the offending log level, whichever layer set it.
func describeConfigError(err error) error {
	var verr *config.ValidationError
	if errors.As(err, &verr) && verr.Path == "logging.level" {
		return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", verr.Value)
	}
	return err
}

func report(alert app.Alert) int {
	fmt.Fprintf(os.Stderr, "%s: %s\n", alert.Title, alert.Message)
	return 1
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.Var(&opts.applies, "apply", "Apply a formatting command, e.g. bold or lineBreak:2 (repeatable)")
	flag.Var(&opts.applies, "a", "Apply a formatting command (shorthand)")
	flag.Var(&opts.says, "say", "Interpret an utterance as a voice command (repeatable)")
	flag.StringVar(&opts.transcript, "transcript", "", "Read a line transcript from file, or - for stdin")
	flag.StringVar(&opts.script, "script", "", "Run a Lua script against the document")
	flag.StringVar(&opts.savePath, "o", "", "Save the document to path")
	flag.BoolVar(&opts.write, "write", false, "Save the document back to its file")
	flag.BoolVar(&opts.write, "w", false, "Save the document back to its file (shorthand)")
	flag.StringVar(&opts.exportPath, "export", "", "Export HTML to path (auto derives it from the document)")
	flag.BoolVar(&opts.render, "render", false, "Print the rendered HTML page to stdout")
	flag.BoolVar(&opts.watch, "watch", false, "Keep running and reload the document when it changes on disk")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "mdscribe - markdown formatting and voice dictation\n\n")
		fmt.Fprintf(os.Stderr, "Usage: mdscribe [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mdscribe -a header1 -w notes.md          Make the start of notes.md a header\n")
		fmt.Fprintf(os.Stderr, "  mdscribe -say \"make header\" -say Hello   Dictate into a new document\n")
		fmt.Fprintf(os.Stderr, "  mdscribe -transcript - -w notes.md       Apply a recognizer transcript from stdin\n")
		fmt.Fprintf(os.Stderr, "  mdscribe -export auto notes.md           Write notes.html\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("mdscribe %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch flag.NArg() {
	case 0:
	case 1:
		opts.file = flag.Arg(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: expected at most one file, got %d\n", flag.NArg())
		os.Exit(1)
	}

	return opts
}
