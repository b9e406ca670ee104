// Package main implements the init command, which writes a starter
// configuration.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"jsvet/cmd/jsvet/ui"
	"jsvet/internal/config"
)

var (
	initForce    bool
	initDefaults bool
)

// initCmd writes .jsvet.yaml into the workspace
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .jsvet.yaml in the workspace",
	Long: `Sets up jsvet for a project:

  1. Writes a .jsvet.yaml with your answers (or the defaults)
  2. Creates the .jsvet/ directory for the cache and rule plugins

Run this once per project. Existing configuration is preserved unless
--force is given.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"Overwrite an existing config")
	initCmd.Flags().BoolVar(&initDefaults, "defaults", false,
		"Skip the prompts and write the default config")
}

func runInit(cmd *cobra.Command, args []string) error {
	root := workspaceDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot determine working directory: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("cannot resolve workspace %s: %w", root, err)
	}

	path := filepath.Join(abs, config.FileName)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if !initDefaults {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	if cfg.Cache.Enabled {
		if err := os.MkdirAll(cfg.CacheDir(abs), 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	if cfg.Plugins.Enabled {
		if err := os.MkdirAll(cfg.PluginDir(abs), 0755); err != nil {
			return fmt.Errorf("failed to create plugin directory: %w", err)
		}
	}

	styles := ui.DefaultStyles()
	fmt.Printf("%s wrote %s\n", styles.Success.Render("✓"), path)
	if cfg.Plugins.Enabled {
		fmt.Printf("%s custom rules go in %s\n",
			styles.Success.Render("✓"), cfg.PluginDir(abs))
	}
	fmt.Println("\nNext: jsvet check")
	return nil
}

// promptConfig fills cfg interactively.
func promptConfig(cfg *config.Config) error {
	var extensions string
	if err := survey.AskOne(&survey.Input{
		Message: "File extensions to lint:",
		Default: strings.Join(cfg.Extensions, ", "),
	}, &extensions); err != nil {
		return err
	}
	if list := parseList(extensions); len(list) > 0 {
		cfg.Extensions = list
	}

	var ignore string
	if err := survey.AskOne(&survey.Input{
		Message: "Directories and patterns to ignore:",
		Default: strings.Join(cfg.Ignore, ", "),
	}, &ignore); err != nil {
		return err
	}
	cfg.Ignore = parseList(ignore)

	if err := survey.AskOne(&survey.Confirm{
		Message: "Cache results between runs?",
		Default: true,
	}, &cfg.Cache.Enabled); err != nil {
		return err
	}

	if err := survey.AskOne(&survey.Confirm{
		Message: "Load custom rule plugins?",
		Default: true,
	}, &cfg.Plugins.Enabled); err != nil {
		return err
	}

	var lineLength string
	if err := survey.AskOne(&survey.Select{
		Message: "Lines over 80 characters are:",
		Options: []string{"warning", "error", "off"},
		Default: "warning",
	}, &lineLength); err != nil {
		return err
	}
	if lineLength != "warning" {
		cfg.Rules["line-length"] = config.RuleConfig{Severity: lineLength}
	}

	return nil
}

// parseList splits a comma separated answer into clean entries.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
