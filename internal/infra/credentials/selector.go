package credentials

import (
	"context"
	"errors"

	"server/internal/infra"
)

// Selector is the workflow's view of the key-acquisition collaborator:
// confirm a usable key exists, or trigger key selection when the provider
// rejects the current one.
type Selector interface {
	Has(ctx context.Context) (bool, error)
	Select(ctx context.Context) error
}

// StoreSelector backs the Selector with a Store. Select cannot prompt the
// user from a server process; it signals the presentation layer that a new
// key is needed and counts on the set-key endpoint (or the geminikey tool)
// to supply one.
type StoreSelector struct {
	store  Store
	logger *infra.Logger
}

func NewStoreSelector(store Store, logger *infra.Logger) *StoreSelector {
	return &StoreSelector{store: store, logger: logger}
}

func (s *StoreSelector) Has(ctx context.Context) (bool, error) {
	key, err := s.store.APIKey(ctx)
	if err != nil {
		return false, err
	}
	return key != "", nil
}

func (s *StoreSelector) Select(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Warn().Msg("credentials: gemini api key missing or rejected; a new key must be provided")
	}
	key, err := s.store.APIKey(ctx)
	if err != nil {
		return err
	}
	if key == "" {
		return errors.New("gemini api key not configured")
	}
	return nil
}

var _ Selector = (*StoreSelector)(nil)
