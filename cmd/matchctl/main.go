package main

import (
	"fmt"
	"os"

	"github.com/benvon/coffee-match/cmd/matchctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "matchctl",
		Short: "Operator tool for the coffee match engine",
		Long:  "CLI tool for applying the schema, inspecting scores and queueing profile refreshes",
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewScoreCmd())
	rootCmd.AddCommand(commands.NewCandidatesCmd())
	rootCmd.AddCommand(commands.NewRefreshCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
