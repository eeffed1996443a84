// Command dashboard - бэкенд дашборда longevity-агента: API сервер,
// локальные нагрузочные и chaos батчи, просмотр метрик из консоли.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configDir string
	cmd := &cobra.Command{
		Use:           "dashboard",
		Short:         "Longevity agent dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "Directory with config.yaml (default . and ./configs)")

	cmd.AddCommand(
		serveCmd(&configDir),
		runParallelCmd(&configDir),
		chaosCmd(&configDir),
		overviewCmd(),
	)
	return cmd
}
