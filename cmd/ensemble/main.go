// Command ensemble cross validates forecast strategies on a series, walks the winner forward over
// a holdout and writes the predictions
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "Time series model selection by cross validation",
		Long: `Scores naive, ar, arma, arima and ets forecasts with rolling origin cross validation,
selects the best strategy and evaluates it one step ahead on a holdout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (yaml), defaults to ./ensemble.yaml when present")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json, console")

	rootCmd.AddCommand(crossvalCmd())
	rootCmd.AddCommand(baggingCmd())
	rootCmd.AddCommand(simulateCmd())

	return rootCmd
}
