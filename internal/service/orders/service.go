package orders

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
)

type Service struct {
	store *memory.Store
}

func New(store *memory.Store) *Service {
	return &Service{store: store}
}

// History lists the user's orders, most recent first, with their current
// status. Position k in the result is what Refund calls the kth order.
func (s *Service) History(ctx context.Context, username string) ([]domain.Order, error) {
	const op = "service.orders.History"

	var out []domain.Order
	err := s.store.RunTx(ctx, &memory.TxOptions{ReadOnly: true}, func(ctx context.Context, tx *memory.Tx) error {
		out = s.store.Orders().History(username)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
