package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/summit-backend/internal/app"
)

const shutdownTimeout = 15 * time.Second

func newRootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "summit",
		Short:         "Summit tutoring backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				return os.Setenv("CONFIG_FILE", configFile)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (overrides CONFIG_FILE)")
	root.AddCommand(newServeCmd(), newMigrateCmd(), newRespondCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the turn pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- a.Run() }()

			select {
			case err = <-errCh:
				a.Close()
				return err
			case <-ctx.Done():
			}
			a.Log.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.Shutdown(shutdownCtx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Migrate(cmd.Context())
		},
	}
}

func newRespondCmd() *cobra.Command {
	var threadID string
	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Run the pipeline once for the newest user message in a thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(threadID)
			if err != nil {
				return fmt.Errorf("invalid --thread %q: %w", threadID, err)
			}
			a, err := app.New(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Services.Tutor.RespondLatest(cmd.Context(), id)
			if err != nil {
				return err
			}
			if out.Message == nil {
				return errors.New("pipeline produced no message")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "message %s accepted after %d attempt(s), error score %d\n",
				out.Message.ID, out.Attempts, out.Score)
			return nil
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "thread id")
	_ = cmd.MarkFlagRequired("thread")
	return cmd
}
