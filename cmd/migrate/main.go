package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/diagnosis/bnb-marketplace/pkg/config"
	"github.com/diagnosis/bnb-marketplace/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bnb schema migration tool",
	}

	rootCmd.AddCommand(upCmd(), statusCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := database.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			fmt.Printf("Applied %d migration(s)\n", n)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := database.Status(cmd.Context(), pool)
			if err != nil {
				return err
			}

			fmt.Printf("%-8s  %-30s  %-8s  %s\n", "Version", "Name", "Status", "Applied at")
			for _, st := range statuses {
				status, at := "Pending", ""
				if st.State == goose.StateApplied {
					status, at = "Applied", st.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%-8d  %-30s  %-8s  %s\n", st.Source.Version, filepath.Base(st.Source.Path), status, at)
			}
			return nil
		},
	}
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg.Database.URL, database.PoolOptions{MaxConns: 2})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}
