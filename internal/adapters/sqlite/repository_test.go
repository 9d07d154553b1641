package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"trailbot/internal/domain"
	"trailbot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newOpenPosition(symbol string, entry float64) *domain.Position {
	return &domain.Position{
		Symbol:     symbol,
		EntryPrice: entry,
		PeakPrice:  entry,
		Quantity:   0.25,
		EntryTime:  time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		Status:     domain.StatusOpen,
	}
}

func TestNewRepository_RequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, err)
}

func TestRepository_SaveAndFind(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	pos := newOpenPosition("BTC/USDT", 65000)
	id, err := repo.SaveOpen(ctx, pos)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, pos.ID)

	found, err := repo.FindOpenBySymbol(ctx, "BTC/USDT")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)
	assert.Equal(t, "BTC/USDT", found.Symbol)
	assert.Equal(t, 65000.0, found.EntryPrice)
	assert.Equal(t, 65000.0, found.PeakPrice)
	assert.Equal(t, 0.25, found.Quantity)
	assert.False(t, found.TrailingActivated)
	assert.Equal(t, domain.StatusOpen, found.Status)
	assert.True(t, pos.EntryTime.Equal(found.EntryTime), "entry time %v != %v", pos.EntryTime, found.EntryTime)
}

func TestRepository_SaveUpsertsBySymbol(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	pos := newOpenPosition("BTC/USDT", 100)
	firstID, err := repo.SaveOpen(ctx, pos)
	require.NoError(t, err)

	pos.PeakPrice = 106
	pos.TrailingActivated = true
	secondID, err := repo.SaveOpen(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	found, err := repo.FindOpenBySymbol(ctx, "BTC/USDT")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 106.0, found.PeakPrice)
	assert.True(t, found.TrailingActivated)
}

func TestRepository_FindMissing(t *testing.T) {
	repo := setupTestDB(t)

	found, err := repo.FindOpenBySymbol(context.Background(), "ETH/USDT")
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_Delete(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.SaveOpen(ctx, newOpenPosition("BTC/USDT", 100))
	require.NoError(t, err)
	_, err = repo.SaveOpen(ctx, newOpenPosition("ETH/USDT", 3000))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBySymbol(ctx, "BTC/USDT"))
	require.NoError(t, repo.DeleteBySymbol(ctx, "BTC/USDT"), "deleting twice is a no-op")

	found, err := repo.FindOpenBySymbol(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Nil(t, found)

	other, err := repo.FindOpenBySymbol(ctx, "ETH/USDT")
	require.NoError(t, err)
	assert.NotNil(t, other)
}

func TestRepository_RejectsClosedPosition(t *testing.T) {
	repo := setupTestDB(t)

	pos := newOpenPosition("BTC/USDT", 100)
	pos.Status = domain.StatusClosed
	_, err := repo.SaveOpen(context.Background(), pos)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestRepository_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "restart.db")
	ctx := context.Background()

	repo, err := NewRepository(Config{DBPath: dbPath, Logger: &mockLogger{}})
	require.NoError(t, err)
	_, err = repo.SaveOpen(ctx, newOpenPosition("BTC/USDT", 100))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewRepository(Config{DBPath: dbPath, Logger: &mockLogger{}})
	require.NoError(t, err)
	defer repo.Close()

	found, err := repo.FindOpenBySymbol(ctx, "BTC/USDT")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 100.0, found.EntryPrice)
}
