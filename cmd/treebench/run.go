package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/benz9527/treebench/bench"
)

const appTimeout = 15 * time.Second

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the benchmark and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			withTable, err := cmd.Flags().GetBool("table")
			if err != nil {
				return err
			}
			return runBench(cmd, cfg, withTable)
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("trees", nil, "tree kinds: bst, splay, rbtree")
	flags.StringSlice("sets", nil, "dataset sets under each phase directory")
	flags.Bool("verify", false, "validate the tree invariants after each phase")
	flags.Int("load-workers", 0, "dataset loading workers")
	flags.Bool("table", false, "print the summary table after the report")
	bindFlags(v, cmd, map[string]string{
		"trees":       "trees",
		"sets":        "sets",
		"verify":      "verify",
		"loadWorkers": "load-workers",
	})
	return cmd
}

func runBench(cmd *cobra.Command, cfg *bench.Config, withTable bool) (err error) {
	var (
		runner *bench.Runner
		store  *bench.Store
	)
	app := newApp(cfg, cmd.ErrOrStderr(), &runner, &store)
	if err = app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(cmd.Context(), appTimeout)
	defer cancel()
	if err = app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), appTimeout)
		defer cancel()
		err = multierr.Append(err, app.Stop(stopCtx))
	}()

	rep, runErr := runner.Run(cmd.Context())
	err = multierr.Append(runErr, rep.WriteText(cmd.OutOrStdout()))
	if withTable {
		rep.WriteTable(cmd.OutOrStdout(), bench.NewReportTableStyle())
	}
	if store != nil {
		// A cancelled run still keeps its partial report.
		err = multierr.Append(err, store.Save(context.WithoutCancel(cmd.Context()), rep))
	}
	return err
}
