package main

import (
	"fmt"
	"io"

	"github.com/aouyang1/go-ensemble"
	"github.com/aouyang1/go-ensemble/config"
	"github.com/aouyang1/go-ensemble/logging"
	"github.com/aouyang1/go-ensemble/metrics"
	"github.com/aouyang1/go-ensemble/report"
	"github.com/aouyang1/go-ensemble/sink"
	"github.com/aouyang1/go-ensemble/timedataset"
	"github.com/pkg/profile"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func crossvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crossval DATA RESULT",
		Short: "Select among plain strategies, maximizing r2 by default",
		Long: `Reads a headerless datetime,value csv from DATA, selects the strategy with the best mean
cross validation score and writes the walk forward Observation,Prediction csv to RESULT.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnsemble(cmd, args[0], args[1], config.WithDefault("run.metric", "r2"))
		},
	}
	addRunFlags(cmd)
	return cmd
}

func baggingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bagging DATA RESULT",
		Short: "Select among bagged strategies, minimizing mae by default",
		Long: `Same as crossval with every strategy wrapped in a bootstrap aggregated ensemble. Fitted
ensembles are reused across walk forward steps unless --policy refit is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnsemble(cmd, args[0], args[1],
				config.WithDefault("run.metric", "mae"),
				config.WithDefault("bagging.enabled", true),
			)
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Int("members", 0, "number of bagged members (default 10)")
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("test-size", ensemble.DefaultTestSize, "number of trailing points held out for the walk forward")
	flags.Int("folds", ensemble.DefaultFolds, "number of cross validation folds")
	flags.String("metric", "", "mae, mse, rmse, mape or r2")
	flags.String("policy", "", "walk forward policy: refit or reuse")
	flags.Int("parallelism", 0, "worker limit, 0 uses every cpu and 1 runs sequentially")
	flags.StringSlice("candidates", nil, "strategies to consider (default all)")
	flags.Uint64("seed", 1, "bagging seed")
	flags.String("json", "", "also write the run as json to this path")
	flags.String("plot", "", "also render an html report to this path")
	flags.String("metrics-file", "", "write prometheus metrics in text format to this path")
	flags.String("profile", "", "profile the run: cpu or mem")
	flags.String("redis-addr", "", "also store the run in redis at this address")
}

func loadConfig(cmd *cobra.Command, opts ...config.Option) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path, cmd.Flags(), opts...)
}

func startProfile(mode string) (interface{ Stop() }, error) {
	switch mode {
	case "":
		return nil, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet), nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet), nil
	}
	return nil, fmt.Errorf("unknown profile mode %q", mode)
}

func runEnsemble(cmd *cobra.Command, dataPath, resultPath string, opts ...config.Option) error {
	cfg, err := loadConfig(cmd, opts...)
	if err != nil {
		return err
	}

	logger, closer, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	prof, err := startProfile(cfg.Output.Profile)
	if err != nil {
		return err
	}
	if prof != nil {
		defer prof.Stop()
	}

	td, err := timedataset.LoadCSV(dataPath)
	if err != nil {
		return err
	}

	opt, err := cfg.Options()
	if err != nil {
		return err
	}
	recorder := metrics.NewRecorder()
	opt.Logger = logger
	opt.Metrics = recorder

	e, err := ensemble.New(opt)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	res, err := e.Run(ctx, td)
	if err != nil {
		logger.Error().Err(err).Str("data", dataPath).Msg("run failed")
		return err
	}

	if err := res.TablePrint(cmd.OutOrStdout(), "", "  "); err != nil {
		return err
	}

	sinks, cleanup := buildSinks(cfg, resultPath)
	defer cleanup()
	if err := sinks.Write(ctx, res); err != nil {
		return fmt.Errorf("failed to write results, %w", err)
	}

	if cfg.Output.Plot != "" {
		if err := report.Plot(cfg.Output.Plot, res); err != nil {
			return fmt.Errorf("failed to plot %s, %w", cfg.Output.Plot, err)
		}
	}
	if cfg.Output.MetricsFile != "" {
		if err := recorder.WriteToTextfile(cfg.Output.MetricsFile); err != nil {
			return err
		}
	}

	logger.Info().
		Str("run_id", res.ID.String()).
		Str("result", resultPath).
		Dur("elapsed", res.Elapsed).
		Msg("run complete")
	return nil
}

func buildSinks(cfg *config.Config, resultPath string) (sink.Multi, func()) {
	sinks := sink.Multi{sink.CSVFile{Path: resultPath}}
	if cfg.Output.JSON != "" {
		sinks = append(sinks, sink.JSONFile{Path: cfg.Output.JSON})
	}

	var closers []io.Closer
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, client)
		sinks = append(sinks, sink.NewRedis(client, cfg.Redis.Prefix, cfg.Redis.TTL))
	}

	return sinks, func() {
		for _, c := range closers {
			c.Close()
		}
	}
}
