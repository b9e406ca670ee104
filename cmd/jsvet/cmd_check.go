// Package main implements the check command, the main lint entry
// point.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jsvet/internal/engine"
	"jsvet/internal/report"
)

var (
	checkFormat  string
	checkNoCache bool
	checkStrict  bool
	maxWarnings  int
	onlyRules    []string
	skipRules    []string
)

// checkCmd lints files and directories
var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Lint JavaScript files against the style guide",
	Long: `Lints the given files and directories (default: the workspace root).

Directories are walked recursively, honoring the configured extensions
and ignore patterns. Unchanged files are served from the result cache.

Exit codes:
  0  no problems
  1  violations found
  2  usage, configuration, or internal error`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text",
		"Output format (text, compact, json)")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false,
		"Bypass the result cache")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false,
		"Exit nonzero on warnings too")
	checkCmd.Flags().IntVar(&maxWarnings, "max-warnings", -1,
		"Exit nonzero when warnings exceed this count")
	checkCmd.Flags().StringSliceVar(&onlyRules, "rules", nil,
		"Run only these rules (IDs or names)")
	checkCmd.Flags().StringSliceVar(&skipRules, "skip", nil,
		"Skip these rules (IDs or names)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	env, err := loadEnv()
	if err != nil {
		return err
	}

	// Resolve the formatter before doing any work.
	formatter, err := report.Builtin().Get(checkFormat)
	if err != nil {
		return err
	}

	reg := buildRegistry(ctx, env)
	store := openCache(env, checkNoCache)
	if store != nil {
		defer store.Close()
	}

	runner := engine.NewRunner(env.cfg, reg, store)
	if len(onlyRules) > 0 || len(skipRules) > 0 {
		runner.SetRuleFilter(onlyRules, skipRules)
	}

	targets := args
	if len(targets) == 0 {
		targets = []string{env.root}
	}

	rep, err := runner.Run(ctx, targets)
	if err != nil {
		return err
	}

	if err := formatter.Format(os.Stdout, rep); err != nil {
		return err
	}

	logger.Debug("run complete",
		zap.String("run_id", rep.RunID),
		zap.Int("files", rep.Files),
		zap.Int("errors", rep.Errors),
		zap.Int("warnings", rep.Warnings))

	if rep.Errors > 0 {
		return errViolationsFound
	}
	if checkStrict && rep.Warnings > 0 {
		return errViolationsFound
	}
	if maxWarnings >= 0 && rep.Warnings > maxWarnings {
		return errViolationsFound
	}
	return nil
}
