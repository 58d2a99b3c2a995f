package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"server/internal/infra"
	"server/internal/sqlinline"
)

const ProviderGemini = "gemini"

// Store holds the Gemini API key used to authenticate generation calls.
type Store interface {
	APIKey(ctx context.Context) (string, error)
	SetAPIKey(ctx context.Context, key string) error
}

// SQLStore keeps the key in the integration_tokens table.
type SQLStore struct {
	sql infra.SQLExecutor
}

func NewSQLStore(sql infra.SQLExecutor) *SQLStore {
	return &SQLStore{sql: sql}
}

func (s *SQLStore) APIKey(ctx context.Context) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, ProviderGemini)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *SQLStore) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	raw, err := json.Marshal(map[string]any{})
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, ProviderGemini, key, raw)
	return err
}

// EnvStore keeps the key in process memory, seeded from the environment.
// Used when no database is configured.
type EnvStore struct {
	mu  sync.RWMutex
	key string
}

func NewEnvStore(key string) *EnvStore {
	return &EnvStore{key: strings.TrimSpace(key)}
}

func (s *EnvStore) APIKey(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, nil
}

func (s *EnvStore) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*EnvStore)(nil)
)
