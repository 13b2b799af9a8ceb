package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func TestCreateListFromTemplate_LeiteScenario(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)

	ana, err := b.CreateUser(ctx, "Ana")
	require.NoError(t, err)
	tmpl, err := b.CreateList(ctx, ana, "Feira", true)
	require.NoError(t, err)
	_, err = b.AddListItem(ctx, tmpl, "Leite", 0, 1)
	require.NoError(t, err)

	listID, err := b.CreateListFromTemplate(ctx, ana, tmpl, "")
	require.NoError(t, err)

	list, err := b.GetList(ctx, listID)
	require.NoError(t, err)
	assert.Equal(t, "Feira", list.Name, "named after the template")
	assert.False(t, list.IsTemplate)
	assert.Equal(t, types.ListStatusDraft, list.Status)

	items, err := b.GetListItems(ctx, listID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Leite", items[0].Name)
	assert.Equal(t, 0.0, items[0].Price)
	assert.Equal(t, 1, items[0].Quantity)
	assert.False(t, items[0].IsCompleted)
}

func TestSaveListAsTemplate(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)

	ana, err := b.CreateUser(ctx, "Ana")
	require.NoError(t, err)
	src, err := b.CreateList(ctx, ana, "Feira", false)
	require.NoError(t, err)
	arroz, err := b.AddListItem(ctx, src, "Arroz", 5, 2)
	require.NoError(t, err)
	_, err = b.AddListItem(ctx, src, "Leite", 4.5, 3)
	require.NoError(t, err)
	require.NoError(t, b.MarkListItemComplete(ctx, arroz, true))

	tmpl, err := b.SaveListAsTemplate(ctx, src, "Semanal")
	require.NoError(t, err)

	saved, err := b.GetList(ctx, tmpl)
	require.NoError(t, err)
	assert.True(t, saved.IsTemplate)
	assert.Equal(t, "Semanal", saved.Name)
	assert.Equal(t, ana, saved.UserID)

	items, err := b.GetListItems(ctx, tmpl)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, 0.0, it.Price)
		assert.False(t, it.IsCompleted)
	}
	assert.Equal(t, []string{"Arroz", "Leite"}, []string{items[0].Name, items[1].Name})
	assert.Equal(t, []int{2, 3}, []int{items[0].Quantity, items[1].Quantity})

	// The source list is untouched.
	original, err := b.GetListItems(ctx, src)
	require.NoError(t, err)
	require.Len(t, original, 2)
	assert.Equal(t, 5.0, original[0].Price)
	assert.True(t, original[0].IsCompleted)

	// Blank name keeps the source name.
	again, err := b.SaveListAsTemplate(ctx, src, " ")
	require.NoError(t, err)
	l, err := b.GetList(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, "Feira", l.Name)

	templates, err := b.GetTemplatesByUser(ctx, ana)
	require.NoError(t, err)
	assert.Len(t, templates, 2)
}

func TestTemplateRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)

	ana, err := b.CreateUser(ctx, "Ana")
	require.NoError(t, err)
	src, err := b.CreateList(ctx, ana, "Feira", false)
	require.NoError(t, err)
	for _, it := range []struct {
		name string
		qty  int
	}{{"Arroz", 2}, {"Feijão", 1}, {"Café", 3}} {
		_, err := b.AddListItem(ctx, src, it.name, 9.99, it.qty)
		require.NoError(t, err)
	}

	tmpl, err := b.SaveListAsTemplate(ctx, src, "")
	require.NoError(t, err)
	copyID, err := b.CreateListFromTemplate(ctx, ana, tmpl, "Feira de sábado")
	require.NoError(t, err)

	want, err := b.GetListItems(ctx, src)
	require.NoError(t, err)
	got, err := b.GetListItems(ctx, copyID)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.Equal(t, 0.0, got[i].Price)
		assert.False(t, got[i].IsCompleted)
	}

	l, err := b.GetList(ctx, copyID)
	require.NoError(t, err)
	assert.Equal(t, "Feira de sábado", l.Name)
}

func TestCreateListFromTemplate_Errors(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)
	ana, err := b.CreateUser(ctx, "Ana")
	require.NoError(t, err)
	tmpl, err := b.CreateList(ctx, ana, "Modelo", true)
	require.NoError(t, err)

	_, err = b.CreateListFromTemplate(ctx, ana, 404, "")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.CreateListFromTemplate(ctx, 99, tmpl, "")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.SaveListAsTemplate(ctx, 404, "x")
	assert.ErrorIs(t, err, types.ErrNotFound)

	counts, err := b.RowCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["lists"])
}

func TestCreateListFromTemplate_AnotherUser(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)
	ana, err := b.CreateUser(ctx, "Ana")
	require.NoError(t, err)
	bruno, err := b.CreateUser(ctx, "Bruno")
	require.NoError(t, err)
	tmpl, err := b.CreateList(ctx, ana, "Modelo", true)
	require.NoError(t, err)

	listID, err := b.CreateListFromTemplate(ctx, bruno, tmpl, "")
	require.NoError(t, err)
	l, err := b.GetList(ctx, listID)
	require.NoError(t, err)
	assert.Equal(t, bruno, l.UserID)
}
