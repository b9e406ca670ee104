// Package main implements the watch command, which relints files as
// they change.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"jsvet/cmd/jsvet/ui"
	"jsvet/internal/engine"
	"jsvet/internal/logging"
	"jsvet/internal/report"
	"jsvet/internal/watch"
)

var watchNoTUI bool

// watchCmd watches a directory and relints on change
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Relint files as they change",
	Long: `Watches the workspace (or the given directory) and relints files as
they are created, modified, or removed.

By default an interactive view shows live per-file results. With
--no-tui, results stream as plain compact lines instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoTUI, "no-tui", false,
		"Stream plain output instead of the interactive view")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	env, err := loadEnv()
	if err != nil {
		return err
	}

	dir := env.root
	if len(args) == 1 {
		dir, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("cannot resolve %s: %w", args[0], err)
		}
		fi, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", args[0])
		}
	}

	reg := buildRegistry(ctx, env)
	store := openCache(env, false)
	if store != nil {
		defer store.Close()
	}
	runner := engine.NewRunner(env.cfg, reg, store)

	w, err := watch.New(env.cfg)
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Add(dir); err != nil {
		return err
	}

	if watchNoTUI {
		return watchPlain(ctx, w, runner, dir)
	}
	return watchTUI(ctx, w, runner, dir)
}

// watchTUI drives the interactive watch view. Watcher callbacks feed
// the model through Program.Send.
func watchTUI(ctx context.Context, w *watch.Watcher, runner *engine.Runner, dir string) error {
	relint := func() tea.Msg {
		rep, err := runner.Run(ctx, []string{dir})
		if err != nil {
			return ui.RunErrorMsg{Err: err}
		}
		return ui.RunFinishedMsg{Report: rep}
	}

	p := tea.NewProgram(ui.NewWatchModel(dir, relint))

	w.OnChange = func(paths []string) {
		for _, path := range paths {
			res, err := runner.LintFile(ctx, path)
			if err != nil {
				logging.WatchWarn("relint %s: %v", path, err)
				continue
			}
			p.Send(ui.FileResultMsg{Result: res})
		}
	}
	w.OnRemove = func(path string) {
		p.Send(ui.FileRemovedMsg{Path: path})
	}

	if err := w.Start(ctx); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}

// watchPlain streams compact lines without a TUI, for logs and dumb
// terminals.
func watchPlain(ctx context.Context, w *watch.Watcher, runner *engine.Runner, dir string) error {
	compact, err := report.Builtin().Get("compact")
	if err != nil {
		return err
	}

	rep, err := runner.Run(ctx, []string{dir})
	if err != nil {
		return err
	}
	if err := compact.Format(os.Stdout, rep); err != nil {
		return err
	}
	fmt.Printf("watching %s (%d files, %d problems)\n",
		dir, rep.Files, rep.Errors+rep.Warnings)

	w.OnChange = func(paths []string) {
		for _, path := range paths {
			res, err := runner.LintFile(ctx, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %s: %v\n", path, err)
				continue
			}
			if len(res.Violations) == 0 {
				fmt.Printf("%s: clean\n", path)
				continue
			}
			for _, v := range res.Violations {
				fmt.Printf("%s:%d:%d: %s [%s]\n",
					v.Path, v.Line, v.Col, v.Message, v.RuleID)
			}
		}
	}
	w.OnRemove = func(path string) {
		fmt.Printf("%s: removed\n", path)
	}

	if err := w.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}
