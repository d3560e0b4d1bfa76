package ledgerservice_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	ledgerservice "tally/contexts/finance-core/ledger-service"
	"tally/contexts/finance-core/ledger-service/application/workers"
	"tally/contexts/finance-core/ledger-service/domain/entities"
	domainerrors "tally/contexts/finance-core/ledger-service/domain/errors"
	httptransport "tally/contexts/finance-core/ledger-service/transport/http"
)

func TestTransferMovesValueBetweenUsers(t *testing.T) {
	module := ledgerservice.NewInMemoryModule(nil, nil)
	module.Store.SeedUser(entities.User{UserID: "user-a", Name: "Alice", Active: true})
	module.Store.SeedUser(entities.User{UserID: "user-b", Name: "Bob", Active: true})

	txn, err := module.Handler.TransferHandler(context.Background(), "user-a", httptransport.CreateTransactionRequest{
		ReceiverID: "user-b",
		Amount:     250,
		Reason:     "lunch",
	})
	if err != nil {
		t.Fatalf("transfer should succeed: %v", err)
	}
	if txn.Amount != 250 || txn.SenderID != "user-a" || txn.ReceiverID != "user-b" {
		t.Fatalf("unexpected transaction: %+v", txn)
	}

	senderBalance, err := module.Handler.BalanceHandler(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("sender balance lookup failed: %v", err)
	}
	if senderBalance.Balance != -250 {
		t.Fatalf("expected sender balance -250, got %d", senderBalance.Balance)
	}
	receiverBalance, err := module.Handler.BalanceHandler(context.Background(), "user-b")
	if err != nil {
		t.Fatalf("receiver balance lookup failed: %v", err)
	}
	if receiverBalance.Balance != 250 {
		t.Fatalf("expected receiver balance 250, got %d", receiverBalance.Balance)
	}
}

func TestTransferValidationFailures(t *testing.T) {
	module := ledgerservice.NewInMemoryModule(nil, nil)
	module.Store.SeedUser(entities.User{UserID: "user-a", Name: "Alice", Active: true})
	module.Store.SeedUser(entities.User{UserID: "user-b", Name: "Bob", Active: true})
	module.Store.SeedUser(entities.User{UserID: "user-inactive", Name: "Gone", Active: false})

	cases := []struct {
		name     string
		sender   string
		req      httptransport.CreateTransactionRequest
		expected error
	}{
		{
			name:     "non-positive amount",
			sender:   "user-a",
			req:      httptransport.CreateTransactionRequest{ReceiverID: "user-b", Amount: 0},
			expected: domainerrors.ErrInvalidAmount,
		},
		{
			name:     "amount over the configured maximum",
			sender:   "user-a",
			req:      httptransport.CreateTransactionRequest{ReceiverID: "user-b", Amount: 10001},
			expected: domainerrors.ErrAmountTooLarge,
		},
		{
			name:     "self transfer",
			sender:   "user-a",
			req:      httptransport.CreateTransactionRequest{ReceiverID: "user-a", Amount: 10},
			expected: domainerrors.ErrSameUser,
		},
		{
			name:     "inactive receiver",
			sender:   "user-a",
			req:      httptransport.CreateTransactionRequest{ReceiverID: "user-inactive", Amount: 10},
			expected: domainerrors.ErrUserInactive,
		},
		{
			name:     "unknown receiver",
			sender:   "user-a",
			req:      httptransport.CreateTransactionRequest{ReceiverID: "user-missing", Amount: 10},
			expected: domainerrors.ErrUserNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := module.Handler.TransferHandler(context.Background(), tc.sender, tc.req)
			if !errors.Is(err, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestTransferExternalSenderNeedsVoucher(t *testing.T) {
	module := ledgerservice.NewInMemoryModule(nil, nil)
	module.Store.SeedUser(entities.User{UserID: "user-ext", Name: "Guest", Active: true, External: true})
	module.Store.SeedUser(entities.User{UserID: "user-b", Name: "Bob", Active: true})

	_, err := module.Handler.TransferHandler(context.Background(), "user-ext", httptransport.CreateTransactionRequest{
		ReceiverID: "user-b",
		Amount:     50,
	})
	if !errors.Is(err, domainerrors.ErrVoucherRequired) {
		t.Fatalf("expected voucher requirement, got %v", err)
	}

	voucher := "user-b"
	module.Store.SeedUser(entities.User{UserID: "user-ext", Name: "Guest", Active: true, External: true, VoucherID: &voucher})
	if _, err := module.Handler.TransferHandler(context.Background(), "user-ext", httptransport.CreateTransactionRequest{
		ReceiverID: "user-b",
		Amount:     50,
	}); err != nil {
		t.Fatalf("vouched external transfer should succeed: %v", err)
	}
}

func TestTransferDebtorCeiling(t *testing.T) {
	module := ledgerservice.NewInMemoryModule(nil, nil)
	module.Store.SeedUser(entities.User{UserID: "user-a", Name: "Alice", Active: true})
	module.Store.SeedUser(entities.User{UserID: "user-b", Name: "Bob", Active: true})
	// The in-memory wiring allows at most 10 indebted users.
	for i := 0; i < 10; i++ {
		module.Store.SeedUser(entities.User{
			UserID:  fmt.Sprintf("debtor-%d", i),
			Name:    fmt.Sprintf("Debtor %d", i),
			Active:  true,
			Balance: -1,
		})
	}

	_, err := module.Handler.TransferHandler(context.Background(), "user-a", httptransport.CreateTransactionRequest{
		ReceiverID: "user-b",
		Amount:     100,
	})
	if !errors.Is(err, domainerrors.ErrTooManyDebtors) {
		t.Fatalf("expected debtor ceiling rejection, got %v", err)
	}
}

func TestConsumePaysCommunityUser(t *testing.T) {
	module := ledgerservice.NewInMemoryModule(nil, nil)
	module.Store.SeedUser(entities.User{UserID: "community", Name: "community", Active: true, Special: true})
	module.Store.SeedUser(entities.User{UserID: "user-a", Name: "Alice", Active: true})

	txn, err := module.Handler.ConsumeHandler(context.Background(), "user-a", httptransport.ConsumeRequest{
		Quantity:     3,
		PricePerUnit: 150,
		Reason:       "coffee",
	})
	if err != nil {
		t.Fatalf("consume should succeed: %v", err)
	}
	if txn.Amount != 450 {
		t.Fatalf("expected amount 450, got %d", txn.Amount)
	}
	if txn.ReceiverID != "community" {
		t.Fatalf("expected community receiver, got %s", txn.ReceiverID)
	}

	_, err = module.Handler.ConsumeHandler(context.Background(), "user-a", httptransport.ConsumeRequest{
		Quantity:     11,
		PricePerUnit: 10,
	})
	if !errors.Is(err, domainerrors.ErrInvalidQuantity) {
		t.Fatalf("expected quantity rejection, got %v", err)
	}
}

func TestSetVoucherClearRequiresSettledBalance(t *testing.T) {
	module := ledgerservice.NewInMemoryModule(nil, nil)
	voucher := "user-b"
	module.Store.SeedUser(entities.User{UserID: "user-ext", Name: "Guest", Active: true, External: true, VoucherID: &voucher})
	module.Store.SeedUser(entities.User{UserID: "user-b", Name: "Bob", Active: true})

	if _, err := module.Handler.TransferHandler(context.Background(), "user-ext", httptransport.CreateTransactionRequest{
		ReceiverID: "user-b",
		Amount:     75,
	}); err != nil {
		t.Fatalf("setup transfer failed: %v", err)
	}

	_, err := module.Handler.SetVoucherHandler(context.Background(), "user-ext", httptransport.SetVoucherRequest{VoucherID: nil})
	if !errors.Is(err, domainerrors.ErrVoucherDebt) {
		t.Fatalf("expected debt rejection, got %v", err)
	}

	if _, err := module.Handler.TransferHandler(context.Background(), "user-b", httptransport.CreateTransactionRequest{
		ReceiverID: "user-ext",
		Amount:     75,
	}); err != nil {
		t.Fatalf("repayment transfer failed: %v", err)
	}
	resp, err := module.Handler.SetVoucherHandler(context.Background(), "user-ext", httptransport.SetVoucherRequest{VoucherID: nil})
	if err != nil {
		t.Fatalf("clearing a settled voucher should succeed: %v", err)
	}
	if resp.VoucherID != nil {
		t.Fatalf("expected cleared voucher, got %v", *resp.VoucherID)
	}
}

func TestBalanceReconcilerRepairsDrift(t *testing.T) {
	module := ledgerservice.NewInMemoryModule(nil, nil)
	module.Store.SeedUser(entities.User{UserID: "user-a", Name: "Alice", Active: true, Balance: 500})

	reconciler := workers.BalanceReconciler{Transactions: module.Store}
	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("reconcile should succeed: %v", err)
	}

	user, err := module.Handler.GetUserHandler(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("user lookup failed: %v", err)
	}
	if user.Balance != 0 {
		t.Fatalf("expected repaired balance 0, got %d", user.Balance)
	}
}
