package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/benvon/coffee-match/internal/config"
	"github.com/benvon/coffee-match/internal/queue"
	"github.com/spf13/cobra"
)

// NewRefreshCmd creates the refresh command
func NewRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <user-id>",
		Short: "Queue a preference profile refresh",
		Long:  "Enqueue a job that re-vectorizes the user's preference profile and drops their cached record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.RabbitMQURL == "" {
				return errors.New("RABBITMQ_URL is not set")
			}

			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, queue.ProfileRefreshQueueName, nil)
			if err != nil {
				return err
			}
			defer func() {
				if err := jobQueue.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close queue: %v\n", err)
				}
			}()

			job := queue.NewProfileRefreshJob(userID)
			if err := jobQueue.Enqueue(context.Background(), job); err != nil {
				return fmt.Errorf("failed to enqueue refresh: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Queued profile refresh %s for user %s\n", job.ID, userID)
			return nil
		},
	}
}
