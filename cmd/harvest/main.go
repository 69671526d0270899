package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	debug       bool
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "harvest - scheduled external data harvesting",
	Long: `harvest fetches financial data, mutual fund listings and video comments
from third-party APIs and lands them in object storage, one object per record.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write metrics to this node-exporter textfile after the run")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
