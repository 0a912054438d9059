package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-sync/internal/app"
	"github.com/noah-isme/sma-timetable-sync/pkg/config"
	"github.com/noah-isme/sma-timetable-sync/pkg/logger"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "timetablectl",
	Short: "Administer stored class and personnel schedules",
	Long: `timetablectl works directly on the schedule store configured for the API
(STORE_DRIVER, STORE_FILE_PATH, REDIS_*, DB_*). It uses the same sync engine,
so every change keeps class and personnel schedules consistent.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.AddCommand(clearCmd, conflictsCmd, personnelCmd, scheduleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads config, opens the store and runs fn against the wired services.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Metrics.Enabled = false

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, logr.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	return fn(ctx, a)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
