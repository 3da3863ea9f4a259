package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/influencer-analytics/internal/config"
	"github.com/ignite/influencer-analytics/internal/domain"
)

func TestLocalStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "reports/2024-03-02.json", []byte(`{"b":2}`)))
	require.NoError(t, s.Put(ctx, "reports/2024-03-01.json", []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, "dataset.json", []byte(`{}`)))

	data, err := s.Get(ctx, "reports/2024-03-01.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	keys, err := s.List(ctx, "reports/")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/2024-03-01.json", "reports/2024-03-02.json"}, keys)

	_, err = s.Get(ctx, "reports/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_KeysStayUnderRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(filepath.Join(root, "docs"))
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "../escape.json", []byte(`{}`)))
	_, err = os.Stat(filepath.Join(root, "escape.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "docs", "escape.json"))
	assert.NoError(t, err)

	assert.Error(t, s.Put(ctx, "", []byte(`{}`)))
}

func TestDatasetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ds := &domain.Dataset{
		Influencers: []domain.Influencer{{ID: "inf-1", Name: "Ava", Platform: domain.PlatformInstagram}},
		TrackingEvents: []domain.TrackingEvent{{
			ID: "ev-1", CustomerID: "cust-1", Revenue: 120,
			OrderDate:         time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			AttributionSource: domain.SourceInfluencer,
		}},
	}
	require.NoError(t, SaveDataset(ctx, s, "dataset.json", ds, map[string]string{"currency": "USD"}))

	raw, err := s.Get(ctx, "dataset.json")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"trackingData"`)

	got, settings, err := LoadDataset(ctx, s, "dataset.json")
	require.NoError(t, err)
	assert.Equal(t, "USD", settings["currency"])
	require.Len(t, got.Influencers, 1)
	assert.Equal(t, "Ava", got.Influencers[0].Name)
	require.Len(t, got.TrackingEvents, 1)
	assert.InDelta(t, 120, got.TrackingEvents[0].Revenue, 1e-9)
	assert.Empty(t, got.Payouts)
}

func TestLoadJSON_Errors(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	var v map[string]any
	assert.ErrorIs(t, LoadJSON(ctx, s, "nope.json", &v), ErrNotFound)

	require.NoError(t, s.Put(ctx, "bad.json", []byte(`{`)))
	err = LoadJSON(ctx, s, "bad.json", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding bad.json")
}

func TestNew_Local(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := New(context.Background(), config.StorageConfig{Type: "local", LocalPath: dir})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
