package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	montop "github.com/jondoveston/montop/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "montop [server-url]",
	Short: "Terminal dashboard for the metric-sets of a monitored resource",
	Long: `montop shows the collected metric-sets of one monitor as tables,
reading them from a HertzBeat manager, Prometheus, node_exporter or the
local machine.

Examples:
  montop http://hertzbeat.lan:1157 --monitor-id 42
  montop --backend prometheus --server-url http://prometheus.lan:9090 --monitor-id 7 --metrics up
  montop --backend node_exporter --node-exporter-url http://localhost:9100/metrics --monitor-id 1
  montop --backend local
  MONTOP_SERVER_URL=http://hertzbeat.lan:1157 MONTOP_MONITOR_ID=42 montop`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var configFile string

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	flags.String("server-url", "", "metrics server URL")
	flags.String("backend", montop.BackendAuto, "auto, hertzbeat, prometheus, node_exporter or local")
	flags.String("token", "", "bearer token for the hertzbeat api")
	flags.String("id-label", "monitor_id", "prometheus label holding the monitor id")
	flags.StringSlice("node-exporter-url", nil, "node_exporter metrics endpoint URLs, monitor id n is the n-th")
	flags.Int64("monitor-id", 0, "id of the monitored resource")
	flags.String("app", "", "application type shown in the title")
	flags.Int("port", 0, "port shown in the title")
	flags.StringSlice("metrics", nil, "metric-sets to show (default: all of the monitor)")
	flags.StringSlice("favorites", nil, "metric-sets starred at start")
	flags.Int("height", 0, "height of a metric-set table in lines (0 = fill)")
	flags.Duration("refresh", montop.UpdateDuration(), "refresh interval of the active metric-set")
	flags.Duration("timeout", montop.FetchTimeout(), "timeout of a single fetch")
	flags.String("log-file", filepath.Join(os.TempDir(), "montop.log"), "log file (empty disables logging)")
	flags.Bool("debug", false, "verbose logging")
	flags.BoolP("version", "v", false, "Print version information")

	// Bind flags to Viper keys (dashes in flags become underscores in viper)
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "version" {
			return
		}
		_ = viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})

	viper.SetEnvPrefix("montop")
	viper.AutomaticEnv()
	montop.SetDefaults(viper.GetViper())
}

func run(cmd *cobra.Command, args []string) error {
	if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
		fmt.Printf("montop version %s\n", version)
		return nil
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	// Positional argument only if server_url is not already set by env, flag or file
	if len(args) == 1 && viper.GetString("server_url") == "" {
		viper.Set("server_url", args[0])
	}

	cfg, err := montop.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	log, err := montop.NewLogger(cfg.LogFile, cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Infow("starting montop", "version", version, "backend", cfg.Backend, "monitor", cfg.MonitorID)

	svc, err := montop.NewService(context.Background(), cfg, log)
	if err != nil {
		return err
	}

	return montop.Dashboard(svc, cfg.Dashboard(), log)
}
