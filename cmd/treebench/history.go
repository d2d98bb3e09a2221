package main

import (
	"context"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/benz9527/treebench/bench"
	"github.com/benz9527/treebench/lib/infra"
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "list the runs saved in the result store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if len(cfg.Store.DSN) == 0 {
				return infra.NewErrorStack("[treebench] history requires --store-dsn")
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			var store *bench.Store
			app := newApp(cfg, cmd.ErrOrStderr(), &store)
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

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			writeRunsTable(cmd, runs)
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "max runs listed, the latest first")
	return cmd
}

func writeRunsTable(cmd *cobra.Command, runs []bench.RunRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(*bench.NewReportTableStyle())
	t.SetTitle("Recent runs")
	t.AppendHeader(table.Row{"Run", "Started", "Host", "CPU", "Phases", "Elapsed"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339),
			run.Hostname + " (" + run.Env + ")",
			run.CPUModel + " x" + strconv.Itoa(run.Cores),
			len(run.Phases),
			(time.Duration(run.ElapsedUs) * time.Microsecond).String(),
		})
	}
	t.Render()
}
