package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aouyang1/go-ensemble/timedataset"
	"github.com/spf13/cobra"
)

func simulateCmd() *cobra.Command {
	var (
		points        int
		interval      time.Duration
		end           string
		noise         float64
		holidayFactor float64
		seed          uint64
	)

	cmd := &cobra.Command{
		Use:   "simulate OUT",
		Short: "Write a synthetic hourly request rate series with holiday dips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := timedataset.NewDefaultRequestRateOptions()
			opt.Points = points
			opt.Interval = interval
			opt.NoiseScale = noise
			opt.HolidayFactor = holidayFactor
			opt.Seed = seed
			if end != "" {
				t, err := time.Parse(time.RFC3339, end)
				if err != nil {
					return fmt.Errorf("invalid end time %q, %w", end, err)
				}
				opt.End = t
			}

			td, err := timedataset.SimulateRequestRate(opt)
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := timedataset.WriteCSV(f, td); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d points to %s\n", td.Len(), args[0])
			return nil
		},
	}

	def := timedataset.NewDefaultRequestRateOptions()
	cmd.Flags().IntVar(&points, "points", def.Points, "number of points")
	cmd.Flags().DurationVar(&interval, "interval", def.Interval, "spacing between points")
	cmd.Flags().StringVar(&end, "end", def.End.Format(time.RFC3339), "timestamp of the last point, RFC3339")
	cmd.Flags().Float64Var(&noise, "noise", def.NoiseScale, "standard deviation of the gaussian noise")
	cmd.Flags().Float64Var(&holidayFactor, "holiday-factor", def.HolidayFactor, "traffic multiplier on holidays, 1 disables")
	cmd.Flags().Uint64Var(&seed, "seed", def.Seed, "noise seed")

	return cmd
}
