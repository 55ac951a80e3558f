package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/spf13/cobra"
)

// transitionsCmd represents the transitions command
var transitionsCmd = &cobra.Command{
	Use:   "transitions <node>",
	Short: "List the transitions a node's contract declares",
	Long:  `Loads the node's contract and prints its transitions in dispatch order.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		jsonMode, _ := cmd.Flags().GetBool("json")
		describe, _ := cmd.Flags().GetBool("describe")
		node := args[0]

		// Loading degrades to the empty set on broken contracts; the hook
		// captures the cause so it can be surfaced instead of silently
		// printing nothing.
		var degraded string
		hooks := domain.LifecycleHooks{
			OnContractLoad: func(_ context.Context, ev *domain.LoadEvent) {
				if ev.Degraded {
					degraded = ev.Error
				}
			},
		}

		engine, err := espalier.New(node,
			espalier.WithRoot(dir),
			espalier.WithLifecycleHooks(hooks),
		)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		set, err := engine.Transitions(cmd.Context())
		if err != nil {
			fmt.Printf("Error loading transitions: %v\n", err)
			os.Exit(1)
		}

		if degraded != "" {
			fmt.Fprintf(os.Stderr, "Warning: contract failed to load, showing the empty set (%s)\n", degraded)
		}

		if jsonMode {
			data, err := json.MarshalIndent(set, "", "  ")
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
			return
		}

		cli.PrintMarkdown(cli.RenderTransitions(set, describe))
	},
}

func init() {
	rootCmd.AddCommand(transitionsCmd)

	transitionsCmd.Flags().Bool("json", false, "Print the raw transition set as JSON")
	transitionsCmd.Flags().Bool("describe", false, "Include the contract description")
}
