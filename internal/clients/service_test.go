package clients

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recoleo/recoleo/internal/shared"
)

type memoryClientRepo struct {
	byID   map[int64]*Client
	byCode map[string]int64
	nextID int64
}

func newMemoryClientRepo() *memoryClientRepo {
	return &memoryClientRepo{byID: make(map[int64]*Client), byCode: make(map[string]int64)}
}

func (r *memoryClientRepo) Get(ctx context.Context, id int64) (*Client, error) {
	client, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *client
	return &copied, nil
}

func (r *memoryClientRepo) GetByCode(ctx context.Context, code string) (*Client, error) {
	id, ok := r.byCode[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *memoryClientRepo) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var result []Client
	for _, c := range r.byID {
		if req.IsActive != nil && c.IsActive != *req.IsActive {
			continue
		}
		result = append(result, *c)
	}
	return result, len(result), nil
}

func (r *memoryClientRepo) Create(ctx context.Context, client Client) (int64, error) {
	r.nextID++
	client.ID = r.nextID
	r.byID[client.ID] = &client
	r.byCode[client.Code] = client.ID
	return client.ID, nil
}

func (r *memoryClientRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	client, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		client.Name = v.(string)
	}
	if v, ok := updates["is_active"]; ok {
		client.IsActive = v.(bool)
	}
	if v, ok := updates["collection_every_days"]; ok {
		client.CollectionEvery = v.(int)
	}
	return nil
}

func (r *memoryClientRepo) GenerateCode(ctx context.Context) (string, error) {
	return fmt.Sprintf("CLI-%05d", r.nextID+1), nil
}

func TestCreateClientGeneratesCode(t *testing.T) {
	service := NewService(newMemoryClientRepo())

	client, err := service.Create(context.Background(), CreateClientRequest{Name: "Restaurante Bom Sabor"}, 1)
	require.NoError(t, err)
	require.Equal(t, "CLI-00001", client.Code)
	require.True(t, client.IsActive)
	require.Equal(t, int64(1), client.CreatedBy)
}

func TestCreateClientRejectsDuplicateCode(t *testing.T) {
	service := NewService(newMemoryClientRepo())
	ctx := context.Background()

	_, err := service.Create(ctx, CreateClientRequest{Code: "CLI-00007", Name: "Primeiro"}, 1)
	require.NoError(t, err)

	_, err = service.Create(ctx, CreateClientRequest{Code: "CLI-00007", Name: "Segundo"}, 1)
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestUpdateClientAppliesPartialChanges(t *testing.T) {
	service := NewService(newMemoryClientRepo())
	ctx := context.Background()

	created, err := service.Create(ctx, CreateClientRequest{Name: "Cozinha Central", CollectionEvery: 30}, 1)
	require.NoError(t, err)

	name := "Cozinha Central Ltda"
	every := 15
	updated, err := service.Update(ctx, created.ID, UpdateClientRequest{Name: &name, CollectionEvery: &every})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.Equal(t, 15, updated.CollectionEvery)
	require.True(t, updated.IsActive, "untouched fields stay as they were")
}

func TestUpdateMissingClient(t *testing.T) {
	service := NewService(newMemoryClientRepo())
	name := "Ninguém"
	_, err := service.Update(context.Background(), 99, UpdateClientRequest{Name: &name})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
