package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"boardwatch/internal/board"
	"boardwatch/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	var (
		days       int
		forceToday bool
		date       string
		noNews     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and write artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("force-today") {
				a.fetcher.ForceToday = forceToday
			}
			if noNews {
				a.pipeline.News = nil
			}
			opts := pipeline.Options{Days: a.cfg.Board.Days}
			if cmd.Flags().Changed("days") {
				opts.Days = days
			}
			if date != "" {
				t, err := time.ParseInLocation(board.DateLayout, date, a.cfg.App.Location())
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				opts.Today = t
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			run, err := a.pipeline.Run(ctx, opts)
			if run != nil {
				a.logger.Info("run summary",
					zap.String("run_id", run.RunID),
					zap.String("status", run.Status),
					zap.Int("days_fetched", run.DaysFetched),
					zap.Int("news", len(run.News)),
					zap.Strings("artifacts", run.Artifacts))
			}
			return err
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "number of trading days to collect (1-30)")
	cmd.Flags().BoolVar(&forceToday, "force-today", false, "probe today even if it is not a weekday")
	cmd.Flags().StringVar(&date, "date", "", "scan start date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&noNews, "no-news", false, "skip news extraction")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if a.db == nil {
				return fmt.Errorf("db.enabled is false")
			}
			a.logger.Info("migration complete", zap.String("driver", a.db.Driver))
			return nil
		},
	}
}
