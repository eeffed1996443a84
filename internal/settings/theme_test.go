package settings

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap/zaptest"
)

func TestService_DefaultIsDark(t *testing.T) {
	svc := NewService(NewMemoryStore(), zaptest.NewLogger(t))

	got, err := svc.Theme(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeSetting{ClientID: AnonymousClient, Theme: domain.ThemeDark}, got)
}

func TestService_SetAndToggle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), zaptest.NewLogger(t))

	_, err := svc.SetTheme(ctx, "tab-1", domain.ThemeLight)
	require.NoError(t, err)

	got, err := svc.Theme(ctx, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, got.Theme)

	toggled, err := svc.Toggle(ctx, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, toggled.Theme)

	// другой клиент не затронут
	other, err := svc.Toggle(ctx, "tab-2")
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, other.Theme)
}

func TestService_RejectsUnknownTheme(t *testing.T) {
	svc := NewService(NewMemoryStore(), zaptest.NewLogger(t))
	_, err := svc.SetTheme(context.Background(), "tab-1", domain.Theme("sepia"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestService_GarbageInStoreFallsBackToDark(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "tab-1", domain.Theme("neon")))
	svc := NewService(store, zaptest.NewLogger(t))

	got, err := svc.Theme(context.Background(), "tab-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, got.Theme)
}

func TestMemoryStore_EvictsOldestClient(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.capacity = 3

	for i := range 5 {
		require.NoError(t, store.Save(ctx, fmt.Sprintf("tab-%d", i), domain.ThemeLight))
	}
	// повторное сохранение не занимает новый слот
	require.NoError(t, store.Save(ctx, "tab-4", domain.ThemeDark))
	assert.Equal(t, 3, store.Len())

	_, ok, err := store.Load(ctx, "tab-1")
	require.NoError(t, err)
	assert.False(t, ok)
	got, ok, err := store.Load(ctx, "tab-4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.ThemeDark, got)
}

func TestService_TruncatesLongClientID(t *testing.T) {
	svc := NewService(NewMemoryStore(), zaptest.NewLogger(t))

	got, err := svc.SetTheme(context.Background(), strings.Repeat("x", 1000), domain.ThemeLight)
	require.NoError(t, err)
	assert.Len(t, got.ClientID, maxClientIDLen)
}
