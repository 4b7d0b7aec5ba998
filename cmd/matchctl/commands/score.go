package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewScoreCmd creates the score command
func NewScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <user-id> <candidate-id>",
		Short: "Score one candidate for a user",
		Long:  "Compute the compatibility score and its factors without applying filters",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			candidateID, err := parseUserID(args[1])
			if err != nil {
				return err
			}

			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			result, err := newEngine(cfg, db).ScorePair(context.Background(), userID, candidateID)
			if err != nil {
				return fmt.Errorf("failed to score pair: %w", err)
			}

			printScore(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

// NewCandidatesCmd creates the candidates command
func NewCandidatesCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "candidates <user-id>",
		Short: "List ranked candidates for a user",
		Long:  "Run the full candidate filter and print the ranked results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			results, err := newEngine(cfg, db).FindMatches(context.Background(), userID, count)
			if err != nil {
				return fmt.Errorf("failed to find matches: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No eligible candidates")
				return nil
			}

			fmt.Fprintf(out, "Candidates for %s:\n", userID)
			for _, r := range results {
				printScore(out, r)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Maximum number of candidates (0 uses the configured default)")
	return cmd
}
