// Package main implements the rules and explain commands.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jsvet/cmd/jsvet/ui"
)

// rulesCmd lists every registered rule
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List all registered rules",
	Long: `Lists the built-in rules and any loaded plugin rules, with their
effective severity under the current configuration.`,
	RunE: runRules,
}

// explainCmd shows one rule in detail
var explainCmd = &cobra.Command{
	Use:   "explain <rule>",
	Short: "Show what a rule enforces",
	Long: `Shows a rule's category, severity, and the convention it enforces.
Rules can be addressed by ID (SG201) or by name (quotes).`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func runRules(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	env, err := loadEnv()
	if err != nil {
		return err
	}
	reg := buildRegistry(ctx, env)

	styles := ui.DefaultStyles()
	list := reg.List()
	for _, r := range list {
		severity := string(r.DefaultSeverity())
		if override, ok := env.cfg.RuleFor(r.ID(), r.Name()); ok && override.Severity != "" {
			severity = override.Severity
		}

		sev := fmt.Sprintf("%-7s", severity)
		switch severity {
		case "error":
			sev = styles.Error.Render(sev)
		case "warning":
			sev = styles.Warning.Render(sev)
		default:
			sev = styles.Muted.Render(sev)
		}

		fmt.Printf("  %s  %-22s %-8s %s  %s\n",
			styles.Bold.Render(fmt.Sprintf("%-5s", r.ID())),
			r.Name(), r.Category(), sev, r.Description())
	}

	fmt.Printf("\n%d rules registered\n", len(list))
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	env, err := loadEnv()
	if err != nil {
		return err
	}
	reg := buildRegistry(ctx, env)

	rule, ok := reg.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown rule %q (run 'jsvet rules' for the list)", args[0])
	}

	styles := ui.DefaultStyles()
	fmt.Printf("%s %s\n\n",
		styles.Badge.Render(rule.ID()),
		styles.Bold.Render(rule.Name()))
	fmt.Printf("  Category:  %s\n", rule.Category())
	fmt.Printf("  Severity:  %s\n", rule.DefaultSeverity())
	fmt.Printf("\n  %s\n", rule.Description())

	if override, ok := env.cfg.RuleFor(rule.ID(), rule.Name()); ok {
		fmt.Println()
		if override.Severity != "" {
			fmt.Printf("  Configured severity: %s\n", override.Severity)
		}
		if len(override.Options) > 0 {
			fmt.Printf("  Configured options:  %v\n", override.Options)
		}
	}
	return nil
}
