package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier is a contract-driven state transition dispatcher",
	Long:  `Espalier loads declarative transition contracts and routes inbound actions through them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		slog.SetDefault(logging.New(logging.ParseLevel(level)))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory scanned for node contracts")
	rootCmd.PersistentFlags().String("log-level", "info", "Log verbosity: debug, info, warn or error")
}
