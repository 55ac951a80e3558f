package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

// dispatchCmd represents the dispatch command
var dispatchCmd = &cobra.Command{
	Use:   "dispatch <node> [action]",
	Short: "Dispatch actions against a node's contract",
	Long: `Dispatches actions through the node's transition contract.

With an action argument it performs a single dispatch and prints the
response as JSON. Without one it starts an interactive loop reading
action names from stdin.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		logLevel, _ := cmd.Flags().GetString("log-level")
		jsonMode, _ := cmd.Flags().GetBool("json")
		watchMode, _ := cmd.Flags().GetBool("watch")
		version, _ := cmd.Flags().GetString("version")
		payload, _ := cmd.Flags().GetString("payload")

		opts := cli.RunOptions{
			Root:     dir,
			Node:     args[0],
			LogLevel: logLevel,
			JSON:     jsonMode,
			Watch:    watchMode,
		}

		if len(args) == 2 {
			if watchMode {
				fmt.Println("Error: --watch only applies to the interactive loop.")
				os.Exit(1)
			}
			if err := cli.RunOnce(opts, args[1], version, payload); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if err := cli.RunREPL(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(dispatchCmd)

	dispatchCmd.Flags().Bool("json", false, "Run the loop in JSON mode (NDJSON input/output)")
	dispatchCmd.Flags().BoolP("watch", "w", false, "Reload the contract when it changes on disk")
	dispatchCmd.Flags().String("version", "", "Request version echoed back in the response")
	dispatchCmd.Flags().String("payload", "", "Request payload as a JSON object")
}
