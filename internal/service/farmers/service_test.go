package farmers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/repository"
)

type memStore struct {
	farmers []models.Farmer
}

func (m *memStore) InsertFarmer(_ context.Context, f models.Farmer) error {
	m.farmers = append(m.farmers, f)
	return nil
}

func (m *memStore) GetFarmer(_ context.Context, id string) (models.Farmer, error) {
	for _, f := range m.farmers {
		if f.ID == id {
			return f, nil
		}
	}
	return models.Farmer{}, repository.ErrNotFound
}

func (m *memStore) ListFarmers(context.Context) ([]models.Farmer, error) {
	return m.farmers, nil
}

func TestRegister(t *testing.T) {
	svc := NewService(&memStore{}, nil)

	farmer, err := svc.Register(context.Background(), models.Farmer{Name: "  Okello ", Phone: "+256 772 000111", Village: "Gulu"})
	require.NoError(t, err)

	assert.NotEmpty(t, farmer.ID)
	assert.Equal(t, "Okello", farmer.Name)
	assert.Equal(t, "256772000111", farmer.Phone)
	assert.False(t, farmer.CreatedAt.IsZero())

	got, err := svc.Get(context.Background(), farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, farmer, got)
}

func TestRegister_NameRequired(t *testing.T) {
	svc := NewService(&memStore{}, nil)

	_, err := svc.Register(context.Background(), models.Farmer{Name: "   "})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(&memStore{}, nil)

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestList(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, nil)
	for _, name := range []string{"A", "B"} {
		_, err := svc.Register(context.Background(), models.Farmer{Name: name})
		require.NoError(t, err)
	}

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
