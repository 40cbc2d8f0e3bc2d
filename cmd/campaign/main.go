package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SheetMailer/internal/app"
	"SheetMailer/internal/config"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:           "campaign",
		Short:         "Send personalized emails from a recipient sheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(sendCmd(), previewCmd(), validateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads config and wires the application for one command.
func setup(ctx context.Context) (*app.App, *zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sendCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Run the email pipeline once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, logger, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync()

			if force {
				summary, err := a.Pipeline.Run(ctx)
				if err != nil {
					return err
				}
				return printJSON(summary)
			}

			summary, err := a.Scheduler.TriggerNow(ctx)
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip the pre-flight configuration check")
	return cmd
}

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Render the email for the first unsent recipient without sending",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync()

			return printJSON(a.Pipeline.Preview(cmd.Context()))
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the store, the SMTP connection and the templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync()

			issues := a.Pipeline.ValidateConfiguration(cmd.Context())
			if len(issues) == 0 {
				fmt.Println("configuration is ready")
				return nil
			}
			for _, issue := range issues {
				fmt.Println("-", issue)
			}
			return fmt.Errorf("%d configuration issue(s)", len(issues))
		},
	}
}
