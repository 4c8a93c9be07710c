// Package main provides the xmlrpc-binder command line tool.
//
// Commands:
//   - analyze: derive a declaration file from xmlrpc struct tags
//   - check: validate a declaration file against Go packages
//   - schema: print the JSON Schema of declaration files
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"xmlrpc-binder/internal/analyze"
	"xmlrpc-binder/internal/config"
	"xmlrpc-binder/internal/decl"
	"xmlrpc-binder/internal/diagnostic"
)

const usage = `usage: xmlrpc-binder <command> [flags] [packages]

Commands:
  analyze   derive declarations from xmlrpc struct tags
  check     validate a declaration file against packages
  schema    print the JSON Schema of declaration files
`

// errFailed marks a run whose diagnostics contain errors.
var errFailed = errors.New("diagnostics reported errors")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := log.StandardLogger()
	logger.SetOutput(os.Stderr)

	if err := cfg.Configure(logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, os.Args[1:], os.Stdout, logger)

	switch {
	case err == nil:
	case errors.Is(err, errFailed):
		os.Exit(1)
	default:
		logger.WithError(err).Error("xmlrpc-binder failed")
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, logger log.FieldLogger) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "analyze":
		return runAnalyze(args[1:], stdout, logger)
	case "check":
		return runCheck(ctx, args[1:], stdout, logger)
	case "schema":
		return runSchema(stdout)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runAnalyze(args []string, stdout io.Writer, logger log.FieldLogger) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stdout)

	dir := fs.String("dir", ".", "directory to load packages from")
	paths := fs.Bool("paths", false, "print the wire paths of every message instead of declarations")
	depth := fs.Int("depth", 4, "maximum nesting depth for -paths")

	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := loadGraph(logger, *dir, fs.Args())
	if err != nil {
		return err
	}

	if *paths {
		printPaths(stdout, g, *depth)
		return nil
	}

	f, diags := analyze.Declarations(g)
	report(logger, diags)

	out, err := decl.Marshal(f)
	if err != nil {
		return err
	}

	if _, err := stdout.Write(out); err != nil {
		return err
	}

	if diags.HasErrors() {
		return errFailed
	}

	return nil
}

func runCheck(ctx context.Context, args []string, stdout io.Writer, logger log.FieldLogger) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stdout)

	dir := fs.String("dir", ".", "directory to load packages from")
	declPath := fs.String("decl", "", "declaration file to check")
	watch := fs.Bool("watch", false, "check again whenever the declaration file changes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *declPath == "" {
		return errors.New("check: -decl is required")
	}

	g, err := loadGraph(logger, *dir, fs.Args())
	if err != nil {
		return err
	}

	err = checkOnce(stdout, logger, g, *declPath)
	if !*watch {
		return err
	}

	return watchFile(ctx, logger, *declPath, func() {
		// Errors are reported; watching continues.
		_ = checkOnce(stdout, logger, g, *declPath)
	})
}

func runSchema(stdout io.Writer) error {
	out, err := decl.Schema()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, string(out))

	return err
}

func loadGraph(logger log.FieldLogger, dir string, patterns []string) (*analyze.TypeGraph, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	a := analyze.NewAnalyzer()
	a.SetLogger(logger)

	return a.LoadPackagesIn(dir, patterns...)
}

func checkOnce(stdout io.Writer, logger log.FieldLogger, g *analyze.TypeGraph, path string) error {
	f, err := decl.LoadFile(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Error("cannot load declarations")
		return errFailed
	}

	diags := analyze.CheckFile(f, g)
	report(logger, diags)

	if diags.HasErrors() {
		return errFailed
	}

	fmt.Fprintf(stdout, "%s: %d types ok\n", path, len(f.Types))

	return nil
}

// watchFile calls fn after every write to path until ctx is done. The
// directory is watched so that editors replacing the file are noticed.
func watchFile(ctx context.Context, logger log.FieldLogger, path string, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	logger.WithField("path", path).Info("watching declarations")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			logger.WithField("op", ev.Op.String()).Debug("declarations changed")
			fn()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			logger.WithError(err).Warn("watch error")
		}
	}
}

func report(logger log.FieldLogger, diags diagnostic.Diagnostics) {
	diags.Sort()

	for _, d := range diags.Errors {
		logger.WithField("code", d.Code).Error(d.String())
	}

	for _, d := range diags.Warnings {
		logger.WithField("code", d.Code).Warn(d.String())
	}

	for _, d := range diags.Infos {
		logger.WithField("code", d.Code).Info(d.String())
	}
}

func printPaths(w io.Writer, g *analyze.TypeGraph, depth int) {
	s := analyze.NewTypeStringer()

	for _, t := range g.Shaped() {
		if !t.Shape.IsMessage() {
			continue
		}

		fmt.Fprintf(w, "%s (%s)\n", t.ID.Short(), t.Shape)

		for _, e := range s.WirePaths(t, depth) {
			fmt.Fprintf(w, "  %-32s %-12s %s\n", e.Path, e.Field.Name, e.Type)
		}
	}
}
