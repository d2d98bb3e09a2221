package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/benz9527/treebench/bench"
	"github.com/benz9527/treebench/lib/infra"
)

const envPrefix = "TREEBENCH"

func newRootCmd() *cobra.Command {
	v := viper.New()
	rootCmd := &cobra.Command{
		Use:   "treebench",
		Short: "ordered tree map benchmark",
		Long:  "Benchmarks the unbalanced BST, the splay tree and the red-black tree over integer datasets.",

		// SilenceUsage is an option to silence usage when an error occurs.
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml)")
	flags.String("data-root", "", "dataset root, laid out as <root>/{insert,search,delete}/<set>/<file>")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-encoder", "", "log encoder: json, plaintext")
	flags.String("metrics", "", "metrics exporter: none, console, prometheus")
	flags.String("store-dsn", "", "sqlite result store dsn, empty disables the store")
	bindFlags(v, rootCmd, map[string]string{
		"config":      "config",
		"dataRoot":    "data-root",
		"log.level":   "log-level",
		"log.encoder": "log-encoder",
		"metrics":     "metrics",
		"store.dsn":   "store-dsn",
	})

	rootCmd.AddCommand(
		newRunCmd(v),
		newHistoryCmd(v),
	)
	return rootCmd
}

// bindFlags maps the config keys to the flags of cmd. Persistent flags are
// looked up too.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(flag)
		}
		if f == nil {
			panic( /* debug assertion */ "[treebench] unknown flag " + flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}
}

func setConfigDefaults(v *viper.Viper) {
	cfg := bench.DefaultConfig()
	v.SetDefault("dataRoot", cfg.DataRoot)
	v.SetDefault("sets", cfg.Sets)
	files := make([]map[string]any, 0, len(cfg.Files))
	for _, f := range cfg.Files {
		files = append(files, map[string]any{"name": f.Name, "desc": f.Desc})
	}
	v.SetDefault("files", files)
	v.SetDefault("trees", cfg.Trees)
	v.SetDefault("verify", cfg.Verify)
	v.SetDefault("loadWorkers", cfg.LoadWorkers)
	v.SetDefault("metrics", cfg.Metrics)
	v.SetDefault("store.dsn", cfg.Store.DSN)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.encoder", cfg.Log.Encoder)
}

// loadConfig merges flags, TREEBENCH_* env vars, the config file and the
// defaults, in priority order.
func loadConfig(v *viper.Viper) (*bench.Config, error) {
	setConfigDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); len(path) > 0 {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, infra.WrapErrorStack(err, "[treebench] read config "+path)
		}
	}

	// Every key owns a default, decoding into a zero config keeps the
	// shorter lists from being merged into the default ones.
	cfg := &bench.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, infra.WrapErrorStack(err, "[treebench] decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
