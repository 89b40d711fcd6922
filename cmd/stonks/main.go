package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stonks",
	Short: "IBS mean-reversion backtester",
	Long: `stonks evaluates an IBS mean-reversion trading rule against
historical daily bars and reports risk-adjusted performance. Optional
lenses replay the same trades under margin leverage or as a long-call
options overlay.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
