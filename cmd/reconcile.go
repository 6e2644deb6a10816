package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vault-inventory/core/reconcile"
	"vault-inventory/feature/inventory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reconcileTimeout time.Duration

// reconcileCmd runs reconciliation passes once and exits.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile <expire|release|low-stock|resync|all>",
	Short: "Run reconciliation passes once",
	Long: `Runs one reconciliation pass, or all of them in order, and prints the report.
The pass lease is honoured, so a pass already running in a server is reported as skipped.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{inventory.PassExpire, inventory.PassRelease, inventory.PassLowStock, inventory.PassResync, "all"},
	RunE:      runReconcile,
}

func init() {
	RootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().DurationVar(&reconcileTimeout, "timeout", 10*time.Minute, "Abort the run after this long")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), reconcileTimeout)
	defer cancel()

	if args[0] == "all" {
		failed := 0
		for _, r := range rt.scheduler.RunAll(ctx) {
			printPassReport(rt.logger, r)
			if r.Error != "" {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d reconciliation passes failed", failed)
		}
		return nil
	}

	report, err := rt.scheduler.RunPass(ctx, args[0])
	if errors.Is(err, reconcile.ErrUnknownPass) {
		return err
	}
	printPassReport(rt.logger, report)
	if errors.Is(err, reconcile.ErrPassBusy) {
		return nil
	}
	return err
}

// printPassReport prints a pass report using logger.
func printPassReport(l *zap.Logger, r reconcile.Report) {
	if r.Skipped {
		l.Info("Pass skipped; lease held elsewhere", zap.String("pass", r.Pass))
		return
	}

	fields := []zap.Field{
		zap.String("pass", r.Pass),
		zap.Int("affected", r.Affected),
		zap.Duration("duration", r.Duration()),
	}
	if r.Error != "" {
		l.Error("Pass failed", append(fields, zap.String("error", r.Error))...)
		return
	}
	l.Info("Pass completed", fields...)

	for key, n := range r.Details {
		l.Info("Affected", zap.String("key", key), zap.Int("count", n))
	}

	// Show a sample of failures (max 5 for logger)
	maxShow := min(len(r.Failures), 5)
	for _, f := range r.Failures[:maxShow] {
		l.Warn("Tolerated failure", zap.String("detail", f))
	}
	if len(r.Failures) > maxShow {
		l.Warn("Additional failures not shown", zap.Int("count", len(r.Failures)-maxShow))
	}
}
