package balance

import (
	"context"

	"github.com/pairwise-games/stakeroom/internal/model"
)

// Gate is the external wallet interface. It is consulted synchronously before
// any state transition that commits funds exposure, and instructed to move
// escrowed stakes on settlement. Balance storage and the real ledger live
// outside this service.
type Gate interface {
	// Balance returns the spendable balance for a user, in minor units
	Balance(ctx context.Context, userID model.UserID) (int64, error)

	// Debit removes amount from the user's balance, failing with
	// model.ErrInsufficientBalance without any movement if the balance
	// is too low
	Debit(ctx context.Context, userID model.UserID, amount int64) error

	// Credit adds amount to the user's balance
	Credit(ctx context.Context, userID model.UserID, amount int64) error
}
