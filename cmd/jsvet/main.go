// Package main implements jsvet, a style guide linter for JavaScript.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jsvet/internal/cache"
	"jsvet/internal/config"
	"jsvet/internal/logging"
	"jsvet/internal/plugin"
	"jsvet/internal/rules"
)

// Populated at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

var (
	// Global flags
	verbose      bool
	cfgFlag      string
	workspaceDir string

	// Logger
	logger = zap.NewNop()
)

// errViolationsFound signals exit code 1. The report has already been
// printed, so main exits without another message.
var errViolationsFound = errors.New("violations found")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "jsvet",
	Short: "jsvet - JavaScript style guide linter",
	Long: `jsvet checks JavaScript sources against the house style guide.

It parses each file, runs every registered rule over the syntax tree
and the raw lines, and reports violations with file, line, and column.
Results are cached per file, so unchanged files are not rechecked.

Run 'jsvet check' to lint, or 'jsvet rules' to see what is enforced.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&cfgFlag, "config", "c", "",
		"Config file (default: nearest .jsvet.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "",
		"Workspace directory (default: current)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if errors.Is(err, errViolationsFound) {
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}

// appEnv carries the resolved workspace and configuration.
type appEnv struct {
	cfg     *config.Config
	root    string
	cfgPath string
}

// loadEnv resolves the workspace root, finds and loads the config, and
// brings up the category logs.
func loadEnv() (*appEnv, error) {
	root := workspaceDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working directory: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve workspace %s: %w", root, err)
	}

	path := cfgFlag
	if path != "" {
		// An explicitly named config must exist.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	} else if found, ok := config.Find(abs); ok {
		path = found
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logging.Initialize(abs); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	logger.Debug("environment loaded",
		zap.String("workspace", abs),
		zap.String("config", path))

	return &appEnv{cfg: cfg, root: abs, cfgPath: path}, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logging.Boot("received shutdown signal")
		cancel()
	}()

	return ctx, cancel
}

// buildRegistry assembles the built-in rules plus configured plugins.
// Plugin problems degrade to warnings; the built-ins always run.
func buildRegistry(ctx context.Context, env *appEnv) *rules.Registry {
	reg := rules.Builtin()
	if !env.cfg.Plugins.Enabled {
		return reg
	}

	dir := env.cfg.PluginDir(env.root)
	loaded, err := plugin.NewLoader().Load(ctx, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: plugins: %v\n", err)
		return reg
	}
	for _, r := range loaded {
		if err := reg.Register(r); err != nil {
			fmt.Fprintf(os.Stderr, "warning: plugin rule %s: %v\n", r.ID(), err)
		}
	}
	return reg
}

// openCache opens the result cache, degrading to uncached on failure.
func openCache(env *appEnv, disabled bool) *cache.Store {
	if disabled || !env.cfg.Cache.Enabled {
		return nil
	}

	store, err := cache.NewStore(env.cfg.CacheDir(env.root))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cache disabled: %v\n", err)
		return nil
	}
	if err := store.EnsureVersion(version); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cache disabled: %v\n", err)
		store.Close()
		return nil
	}
	return store
}
