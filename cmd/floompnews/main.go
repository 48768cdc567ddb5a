package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/floompnews/floompnews"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	configFile string
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "floompnews",
		Short:   "Crypto news aggregation and delivery bot",
		Version: "1.0.0",
	}

	// Add commands
	rootCmd.AddCommand(buildRunCmd())

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the configured feeds and deliver digests",
		RunE:  run,
	}

	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file path (e.g. ./floompnews.yml)")

	return runCmd
}

func run(cmd *cobra.Command, args []string) error {
	config, err := floompnews.LoadConfig(configFile)
	if err != nil {
		return err
	}

	bot, err := floompnews.NewBot(config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
