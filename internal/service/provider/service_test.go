package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/querycache"
)

type memProviders struct {
	repository.ProviderRepository
	providers   map[uuid.UUID]*model.Provider
	listCalls   int
	lastFilters model.ProviderFilters
	createErr   error
	created     []*model.Service
}

func (m *memProviders) Get(_ context.Context, id uuid.UUID) (*model.Provider, error) {
	if p, ok := m.providers[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memProviders) List(_ context.Context, f *model.ProviderFilters) ([]*model.Provider, error) {
	m.listCalls++
	m.lastFilters = *f
	var out []*model.Provider
	for _, p := range m.providers {
		if p.Status == f.Status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProviders) ListServices(context.Context, uuid.UUID) ([]*model.Service, error) {
	return []*model.Service{{Name: "Bath"}}, nil
}

func (m *memProviders) CreateWithServices(_ context.Context, p *model.Provider, services []*model.Service) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.providers[p.ID] = p
	m.created = services
	return nil
}

func (m *memProviders) UpdateStatus(_ context.Context, id uuid.UUID, status model.ProviderStatus) error {
	p, ok := m.providers[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	return nil
}

type memReviews struct {
	repository.ReviewRepository
}

func (memReviews) ListByProvider(context.Context, uuid.UUID, int) ([]*model.Review, error) {
	return []*model.Review{{Rating: 5}}, nil
}

type memProfiles struct {
	repository.ProfileRepository
	roles map[uuid.UUID]model.Role
}

func (m *memProfiles) GetRole(_ context.Context, id uuid.UUID) (model.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return r, nil
}

func (m *memProfiles) UpdateRole(_ context.Context, id uuid.UUID, role model.Role) error {
	m.roles[id] = role
	return nil
}

type recordingEmitter struct{ types []string }

func (r *recordingEmitter) Emit(_ context.Context, t string, _ interface{}) error {
	r.types = append(r.types, t)
	return nil
}

func newService(t *testing.T, providers ...*model.Provider) (*Service, *memProviders, *memProfiles, *recordingEmitter) {
	t.Helper()
	repo := &memProviders{providers: map[uuid.UUID]*model.Provider{}}
	for _, p := range providers {
		repo.providers[p.ID] = p
	}
	profiles := &memProfiles{roles: map[uuid.UUID]model.Role{}}
	events := &recordingEmitter{}
	cache := querycache.New(querycache.DefaultConfig(), nil, nil)
	t.Cleanup(cache.Close)
	return NewService(repo, memReviews{}, profiles, cache, events, logger.Nop()), repo, profiles, events
}

func TestList_OnlyApprovedAndCached(t *testing.T) {
	approved := &model.Provider{ID: uuid.New(), Status: model.ProviderStatusApproved}
	pending := &model.Provider{ID: uuid.New(), Status: model.ProviderStatusPending}
	svc, repo, _, _ := newService(t, approved, pending)

	for i := 0; i < 3; i++ {
		got, err := svc.List(context.Background(), model.ProviderFilters{Category: model.CategoryGrooming, Status: model.ProviderStatusPending})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, approved.ID, got[0].ID)
	}
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, model.ProviderStatusApproved, repo.lastFilters.Status)
	assert.Equal(t, model.DefaultPageSize, repo.lastFilters.Limit)
}

func TestGet_HidesUnapprovedProviders(t *testing.T) {
	pending := &model.Provider{ID: uuid.New(), Status: model.ProviderStatusPending}
	approved := &model.Provider{ID: uuid.New(), Status: model.ProviderStatusApproved}
	svc, _, _, _ := newService(t, pending, approved)

	_, err := svc.Get(context.Background(), pending.ID)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)

	detail, err := svc.Get(context.Background(), approved.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Services, 1)
	assert.Len(t, detail.Reviews, 1)
}

func TestSubmitProvider_PromotesCustomerAndEmits(t *testing.T) {
	svc, repo, profiles, events := newService(t)
	owner := uuid.New()
	profiles.roles[owner] = model.RoleCustomer
	p := &model.Provider{ID: uuid.New(), OwnerID: owner, Status: model.ProviderStatusPending}

	require.NoError(t, svc.SubmitProvider(context.Background(), p, []*model.Service{{Name: "Walk"}}))

	assert.Contains(t, repo.providers, p.ID)
	assert.Len(t, repo.created, 1)
	assert.Equal(t, model.RoleProvider, profiles.roles[owner])
	assert.Equal(t, []string{model.EventProviderOnboarded}, events.types)
}

func TestSubmitProvider_KeepsAdminRole(t *testing.T) {
	svc, _, profiles, _ := newService(t)
	owner := uuid.New()
	profiles.roles[owner] = model.RoleAdmin

	require.NoError(t, svc.SubmitProvider(context.Background(), &model.Provider{ID: uuid.New(), OwnerID: owner}, nil))
	assert.Equal(t, model.RoleAdmin, profiles.roles[owner])
}

func TestSubmitProvider_Failures(t *testing.T) {
	svc, repo, _, events := newService(t)

	repo.createErr = errors.New("connection reset")
	err := svc.SubmitProvider(context.Background(), &model.Provider{ID: uuid.New()}, nil)
	assert.ErrorContains(t, err, "connection reset")

	repo.createErr = repository.ErrConflict
	err = svc.SubmitProvider(context.Background(), &model.Provider{ID: uuid.New()}, nil)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.Code)
	assert.Empty(t, events.types)
}

func TestUpdateStatus_InvalidatesCatalogue(t *testing.T) {
	p := &model.Provider{ID: uuid.New(), Status: model.ProviderStatusPending}
	svc, _, _, _ := newService(t, p)

	got, err := svc.List(context.Background(), model.ProviderFilters{})
	require.NoError(t, err)
	assert.Empty(t, got)

	updated, err := svc.UpdateStatus(context.Background(), p.ID, model.ProviderStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderStatusApproved, updated.Status)

	got, err = svc.List(context.Background(), model.ProviderFilters{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.UpdateStatus(context.Background(), uuid.New(), model.ProviderStatusApproved)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}
