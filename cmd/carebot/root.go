package main

import (
	"context"
	"os"

	"github.com/sandevgo/carebot/internal/config"
	"github.com/sandevgo/carebot/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "carebot",
	Short: "CareBot — a patient-context chat service",
	Long:  `CareBot aggregates patient context, classifies intent and escalates risky turns to a human provider.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
