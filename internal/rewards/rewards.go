// Package rewards is the port to the eco-token reward ledger. The ledger
// itself is an external service; Simulated stands in for it with a fixed
// earning formula so balances are reproducible.
package rewards

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Token earning rates used by Simulated.
const (
	TokensPerStreakDay      = 10
	TokensPerActivity       = 5
	TokensPerPositiveAction = 20
)

// TokenSymbol is the display symbol of the reward token.
const TokenSymbol = "ECO"

// Activity summarises the ledger state a balance is estimated from.
type Activity struct {
	Streak          int `json:"streak"`
	Activities      int `json:"activities"`
	PositiveActions int `json:"positive_actions"`
}

// Balance is an estimated token balance with the receipt of the ledger
// entry that produced it.
type Balance struct {
	Tokens  int    `json:"tokens"`
	Symbol  string `json:"symbol"`
	Receipt string `json:"receipt"`
}

// Service estimates reward balances.
type Service interface {
	EstimateBalance(ctx context.Context, activity Activity) (Balance, error)
}

// receiptNamespace scopes simulated receipt UUIDs.
//
//nolint:gochecknoglobals // Fixed namespace for deterministic receipts.
var receiptNamespace = uuid.MustParse("6f1c2a52-7d0e-4c55-9d7e-2f4b8a0c3e11")

// Simulated is an in-process stand-in for the reward ledger.
type Simulated struct{}

// NewSimulated returns a Simulated reward service.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// EstimateBalance applies the earning formula. The receipt is a name-based
// UUID of the inputs, so equal activity always yields the same receipt.
func (s *Simulated) EstimateBalance(ctx context.Context, activity Activity) (Balance, error) {
	if err := ctx.Err(); err != nil {
		return Balance{}, err
	}
	if activity.Streak < 0 || activity.Activities < 0 || activity.PositiveActions < 0 {
		return Balance{}, fmt.Errorf("negative activity counts: %+v", activity)
	}

	tokens := activity.Streak*TokensPerStreakDay +
		activity.Activities*TokensPerActivity +
		activity.PositiveActions*TokensPerPositiveAction

	key := fmt.Sprintf("%d/%d/%d", activity.Streak, activity.Activities, activity.PositiveActions)
	return Balance{
		Tokens:  tokens,
		Symbol:  TokenSymbol,
		Receipt: uuid.NewSHA1(receiptNamespace, []byte(key)).String(),
	}, nil
}
