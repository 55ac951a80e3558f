package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/validator"
	"github.com/aretw0/espalier/pkg/adapters/fs"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [node...]",
	Short: "Check node contracts for consistency",
	Long: `Lints contract documents against the schema and reports duplicate names,
missing triggers and other findings. Without arguments every node
discovered under the contract root is checked.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		jsonMode, _ := cmd.Flags().GetBool("json")

		if err := runValidate(cmd.Context(), dir, args, jsonMode); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		if !jsonMode {
			fmt.Println("Contracts are valid! ✅")
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("json", false, "Print diagnostics as JSON")
}

func runValidate(ctx context.Context, dir string, nodes []string, jsonMode bool) error {
	source, err := fs.New(dir)
	if err != nil {
		return fmt.Errorf("failed to open contract root: %w", err)
	}

	if len(nodes) == 0 {
		nodes, err = source.ListNodes(ctx)
		if err != nil {
			return fmt.Errorf("failed to list nodes: %w", err)
		}
		if len(nodes) == 0 {
			return fmt.Errorf("no node contracts found under %s", dir)
		}
	}

	var all []validator.Diagnostic
	errors := 0
	for _, node := range nodes {
		raw, err := source.Load(ctx, node)
		if err != nil {
			return fmt.Errorf("failed to read contract for %q: %w", node, err)
		}
		diags := validator.Lint(node, raw)
		all = append(all, diags...)
		for _, d := range diags {
			if d.Severity == validator.SeverityError {
				errors++
			}
		}
	}

	if jsonMode {
		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		for _, d := range all {
			subject := d.Node
			if d.Transition != "" {
				subject = d.Node + "/" + d.Transition
			}
			fmt.Printf("[%s] %s: %s (%s)\n", d.Severity, subject, d.Message, d.Rule)
			if d.Fix != "" {
				fmt.Printf("    fix: %s\n", d.Fix)
			}
		}
	}

	if errors > 0 {
		return fmt.Errorf("%d error(s) across %d node(s)", errors, len(nodes))
	}
	return nil
}
