package balance

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pairwise-games/stakeroom/internal/model"
)

// Ledger is an in-process Gate implementation used in development and tests,
// standing in for the external wallet service. Accounts it has never seen
// start at the configured opening balance.
type Ledger struct {
	mu             sync.Mutex
	balances       map[model.UserID]int64
	openingBalance int64
	logger         *slog.Logger
}

// Ensure Ledger implements Gate
var _ Gate = (*Ledger)(nil)

// NewLedger creates a Ledger where unknown accounts open at openingBalance
func NewLedger(openingBalance int64, logger *slog.Logger) *Ledger {
	return &Ledger{
		balances:       make(map[model.UserID]int64),
		openingBalance: openingBalance,
		logger:         logger.With(slog.String("component", "ledger")),
	}
}

// Balance returns the spendable balance for a user
func (l *Ledger) Balance(ctx context.Context, userID model.UserID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(userID), nil
}

// Debit removes amount from the user's balance
func (l *Ledger) Debit(ctx context.Context, userID model.UserID, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.balanceLocked(userID)
	if current < amount {
		return model.ErrInsufficientBalance
	}
	l.balances[userID] = current - amount

	l.logger.Info("debited",
		slog.String("user_id", string(userID)),
		slog.Int64("amount", amount),
		slog.Int64("balance", l.balances[userID]),
	)
	return nil
}

// Credit adds amount to the user's balance
func (l *Ledger) Credit(ctx context.Context, userID model.UserID, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[userID] = l.balanceLocked(userID) + amount

	l.logger.Info("credited",
		slog.String("user_id", string(userID)),
		slog.Int64("amount", amount),
		slog.Int64("balance", l.balances[userID]),
	)
	return nil
}

// SetBalance sets an account's balance directly (for seeding in tests)
func (l *Ledger) SetBalance(userID model.UserID, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = amount
}

func (l *Ledger) balanceLocked(userID model.UserID) int64 {
	if bal, ok := l.balances[userID]; ok {
		return bal
	}
	return l.openingBalance
}
