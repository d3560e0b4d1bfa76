package workers

import (
	"context"
	"log/slog"

	application "tally/contexts/finance-core/ledger-service/application"
	"tally/contexts/finance-core/ledger-service/ports"
)

// BalanceReconciler verifies the cached balance column against the
// transaction aggregate and repairs drifted rows. Drift indicates a defect
// somewhere in the write path and is logged loudly.
type BalanceReconciler struct {
	Transactions ports.TransactionRepository
	Logger       *slog.Logger
}

// RunOnce scans all users and repairs every drifted balance cache. It keeps
// going after individual repair failures so one bad row cannot stall the
// sweep.
func (r BalanceReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)

	drifted, err := r.Transactions.ListBalanceDrift(ctx)
	if err != nil {
		logger.Error("balance drift scan failed",
			"event", "ledger_reconcile_scan_failed",
			"module", "finance-core/ledger-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(drifted) == 0 {
		return nil
	}

	for _, drift := range drifted {
		logger.Error("balance consistency violation detected",
			"event", "ledger_balance_consistency_violation",
			"module", "finance-core/ledger-service",
			"layer", "worker",
			"user_id", drift.UserID,
			"cached", drift.Cached,
			"computed", drift.Computed,
		)
		if err := r.Transactions.RepairBalance(ctx, drift.UserID, drift.Computed); err != nil {
			logger.Error("balance repair failed",
				"event", "ledger_balance_repair_failed",
				"module", "finance-core/ledger-service",
				"layer", "worker",
				"user_id", drift.UserID,
				"error", err.Error(),
			)
			continue
		}
	}
	logger.Info("balance reconciliation completed",
		"event", "ledger_reconcile_completed",
		"module", "finance-core/ledger-service",
		"layer", "worker",
		"repaired_count", len(drifted),
	)
	return nil
}
