// Package settings хранит тему интерфейса (light/dark) для каждого клиента.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"go.uber.org/zap"
)

// AnonymousClient - клиент без X-Client-ID
const AnonymousClient = "anonymous"

const (
	// лимиты на данные, приходящие в X-Client-ID
	defaultMemoryCapacity = 10000
	themeTTL              = 30 * 24 * time.Hour
	maxClientIDLen        = 128
)

type Store interface {
	// Load возвращает ok=false, если настройка не сохранялась
	Load(ctx context.Context, clientID string) (domain.Theme, bool, error)
	Save(ctx context.Context, clientID string, theme domain.Theme) error
}

// MemoryStore держит не больше capacity клиентов. При переполнении
// вытесняется клиент, сохранивший тему раньше всех.
type MemoryStore struct {
	mu       sync.RWMutex
	themes   map[string]domain.Theme
	order    []string
	capacity int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{themes: make(map[string]domain.Theme), capacity: defaultMemoryCapacity}
}

func (s *MemoryStore) Load(_ context.Context, clientID string) (domain.Theme, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.themes[clientID]
	return t, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, clientID string, theme domain.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.themes[clientID]; !ok {
		if len(s.order) >= s.capacity {
			delete(s.themes, s.order[0])
			s.order = s.order[1:]
		}
		s.order = append(s.order, clientID)
	}
	s.themes[clientID] = theme
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.themes)
}

// RedisStore - тема переживает рестарт и общая для всех инстансов.
// Ключ живет themeTTL с последнего сохранения.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, clientID string) (domain.Theme, bool, error) {
	v, err := s.rdb.Get(ctx, infra.ThemeKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("settings: redis get: %w", err)
	}
	return domain.Theme(v), true, nil
}

func (s *RedisStore) Save(ctx context.Context, clientID string, theme domain.Theme) error {
	if err := s.rdb.Set(ctx, infra.ThemeKey(clientID), string(theme), themeTTL).Err(); err != nil {
		return fmt.Errorf("settings: redis set: %w", err)
	}
	return nil
}

type Service struct {
	store  Store
	mu     sync.Mutex // сериализует Toggle внутри инстанса
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger.Named("settings")}
}

func normalizeClient(clientID string) string {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return AnonymousClient
	}
	if len(clientID) > maxClientIDLen {
		clientID = clientID[:maxClientIDLen]
	}
	return clientID
}

// Theme возвращает сохраненную тему или dark по умолчанию.
// Мусор в хранилище тоже трактуется как dark.
func (s *Service) Theme(ctx context.Context, clientID string) (domain.ThemeSetting, error) {
	clientID = normalizeClient(clientID)
	t, ok, err := s.store.Load(ctx, clientID)
	if err != nil {
		return domain.ThemeSetting{}, err
	}
	if !ok || !t.Valid() {
		t = domain.DefaultTheme
	}
	return domain.ThemeSetting{ClientID: clientID, Theme: t}, nil
}

func (s *Service) SetTheme(ctx context.Context, clientID string, theme domain.Theme) (domain.ThemeSetting, error) {
	if !theme.Valid() {
		return domain.ThemeSetting{}, fmt.Errorf("%w: theme must be light or dark", domain.ErrInvalidRequest)
	}
	clientID = normalizeClient(clientID)
	if err := s.store.Save(ctx, clientID, theme); err != nil {
		return domain.ThemeSetting{}, err
	}
	s.logger.Debug("theme saved", zap.String("client_id", clientID), zap.String("theme", string(theme)))
	return domain.ThemeSetting{ClientID: clientID, Theme: theme}, nil
}

func (s *Service) Toggle(ctx context.Context, clientID string) (domain.ThemeSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.Theme(ctx, clientID)
	if err != nil {
		return domain.ThemeSetting{}, err
	}
	return s.SetTheme(ctx, cur.ClientID, cur.Theme.Opposite())
}
