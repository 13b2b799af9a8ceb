package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)

	id, err := b.CreateUser(ctx, "  Ana  ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	u, err := b.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name, "name is trimmed")
	assert.Equal(t, testStart, u.CreatedAt)
}

func TestCreateUser_Rejected(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)
	_, err := b.CreateUser(ctx, "Ana")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", types.ErrInvalidName},
		{"blank", "   ", types.ErrInvalidName},
		{"duplicate", "Ana", types.ErrDuplicateName},
		{"duplicate after trim", " Ana ", types.ErrDuplicateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.CreateUser(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	users, err := b.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGetUsers_OrderedByName(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)

	users, err := b.GetUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	for _, name := range []string{"Carla", "Ana", "Bruno"} {
		_, err := b.CreateUser(ctx, name)
		require.NoError(t, err)
	}
	users, err = b.GetUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "Ana", users[0].Name)
	assert.Equal(t, "Bruno", users[1].Name)
	assert.Equal(t, "Carla", users[2].Name)
}

func TestGetUser_Errors(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)

	_, err := b.GetUser(ctx, 42)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.GetUser(ctx, 0)
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestDeleteUser_Cascades(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)

	ana, err := b.CreateUser(ctx, "Ana")
	require.NoError(t, err)
	bruno, err := b.CreateUser(ctx, "Bruno")
	require.NoError(t, err)

	// Ana: a finished list, a draft and a template.
	feira, err := b.CreateList(ctx, ana, "Feira", false)
	require.NoError(t, err)
	itemID, err := b.AddListItem(ctx, feira, "Arroz", 5, 2)
	require.NoError(t, err)
	require.NoError(t, b.MarkListItemComplete(ctx, itemID, true))
	_, err = b.FinishPurchase(ctx, ana, feira)
	require.NoError(t, err)
	draft, err := b.CreateList(ctx, ana, "Mercado", false)
	require.NoError(t, err)
	_, err = b.AddListItem(ctx, draft, "Leite", 4, 1)
	require.NoError(t, err)
	_, err = b.SaveListAsTemplate(ctx, draft, "Semanal")
	require.NoError(t, err)

	// Bruno keeps everything.
	other, err := b.CreateList(ctx, bruno, "Churrasco", false)
	require.NoError(t, err)
	_, err = b.AddListItem(ctx, other, "Carvão", 20, 1)
	require.NoError(t, err)

	require.NoError(t, b.DeleteUser(ctx, ana))

	_, err = b.GetUser(ctx, ana)
	assert.ErrorIs(t, err, types.ErrNotFound)

	counts, err := b.RowCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["users"])
	assert.Equal(t, 1, counts["lists"])
	assert.Equal(t, 1, counts["list_items"])
	assert.Equal(t, 0, counts["purchases"])
	assert.Equal(t, 0, counts["purchase_items"])

	items, err := b.GetListItems(ctx, other)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	err = b.DeleteUser(ctx, ana)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
