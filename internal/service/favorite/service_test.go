package favorite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	apperrors "github.com/petify/petify-api/pkg/errors"
)

type memFavorites struct {
	repository.FavoriteRepository
	saved map[[2]uuid.UUID]bool
}

func (m *memFavorites) List(_ context.Context, userID uuid.UUID) ([]*model.Favorite, error) {
	var out []*model.Favorite
	for k := range m.saved {
		if k[0] == userID {
			out = append(out, &model.Favorite{UserID: k[0], ProviderID: k[1]})
		}
	}
	return out, nil
}

func (m *memFavorites) Add(_ context.Context, userID, providerID uuid.UUID) error {
	m.saved[[2]uuid.UUID{userID, providerID}] = true
	return nil
}

func (m *memFavorites) Remove(_ context.Context, userID, providerID uuid.UUID) error {
	k := [2]uuid.UUID{userID, providerID}
	if !m.saved[k] {
		return repository.ErrNotFound
	}
	delete(m.saved, k)
	return nil
}

type memProviders struct {
	repository.ProviderRepository
	items map[uuid.UUID]*model.Provider
}

func (m *memProviders) Get(_ context.Context, id uuid.UUID) (*model.Provider, error) {
	if p, ok := m.items[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func code(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected an app error, got %v", err)
	return appErr.Code
}

func TestFavorites(t *testing.T) {
	approved := &model.Provider{ID: uuid.New(), Status: model.ProviderStatusApproved}
	suspended := &model.Provider{ID: uuid.New(), Status: model.ProviderStatusSuspended}
	favs := &memFavorites{saved: map[[2]uuid.UUID]bool{}}
	svc := NewService(favs, &memProviders{items: map[uuid.UUID]*model.Provider{
		approved.ID:  approved,
		suspended.ID: suspended,
	}})
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, svc.Add(ctx, user, approved.ID))
	require.NoError(t, svc.Add(ctx, user, approved.ID))
	assert.Equal(t, 404, code(t, svc.Add(ctx, user, suspended.ID)))
	assert.Equal(t, 404, code(t, svc.Add(ctx, user, uuid.New())))

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Remove(ctx, user, approved.ID))
	assert.Equal(t, 404, code(t, svc.Remove(ctx, user, approved.ID)))
}
