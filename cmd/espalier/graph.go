package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <node>",
	Short: "Export the transition graph visualization",
	Long:  `Loads the node's contract and outputs a Mermaid diagram (graph TD) linking trigger actions to transitions.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")

		engine, err := espalier.New(args[0], espalier.WithRoot(dir))
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		set, err := engine.Transitions(cmd.Context())
		if err != nil {
			fmt.Printf("Error loading transitions: %v\n", err)
			os.Exit(1)
		}

		// Generate and print Mermaid graph
		fmt.Print(graph.GenerateMermaid(set))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
