package memstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetModel() *schema.Model {
	return &schema.Model{
		App:  "shop",
		Name: "widget",
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, Auto: true},
			{Name: "name", Type: schema.TypeString},
			{Name: "price", Type: schema.TypeInteger},
		},
	}
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := widgetModel()

	created, err := s.Insert(ctx, m, schema.Record{"name": "bolt", "price": int64(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created["id"])

	second, err := s.Insert(ctx, m, schema.Record{"name": "nut", "price": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second["id"])

	got, err := s.Get(ctx, m, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "bolt", got["name"])

	// Returned records are copies.
	got["name"] = "mutated"
	again, _ := s.Get(ctx, m, int64(1))
	assert.Equal(t, "bolt", again["name"])

	updated, err := s.Update(ctx, m, int64(1), schema.Record{"name": "bolt", "price": int64(7)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated["id"])
	assert.Equal(t, int64(7), updated["price"])

	all, err := s.List(ctx, m, store.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0]["id"])

	cheap, err := s.List(ctx, m, store.Filter{Conditions: []store.Condition{{Field: "price", Value: int64(2)}}})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, "nut", cheap[0]["name"])

	require.NoError(t, s.Delete(ctx, m, int64(1)))
	_, err = s.Get(ctx, m, int64(1))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := widgetModel()

	_, err := s.Get(ctx, m, int64(9))
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Update(ctx, m, int64(9), schema.Record{})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, m, int64(9)), store.ErrNotFound)

	list, err := s.List(ctx, m, store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_UUIDKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &schema.Model{
		App:  "crm",
		Name: "contact",
		Fields: []schema.Field{
			{Name: "uid", Type: schema.TypeUUID, PrimaryKey: true, Auto: true},
			{Name: "email", Type: schema.TypeString},
		},
	}

	rec, err := s.Insert(ctx, m, schema.Record{"email": "a@b.c"})
	require.NoError(t, err)
	_, err = uuid.Parse(rec["uid"].(string))
	assert.NoError(t, err)
}

func TestStore_ExplicitKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &schema.Model{
		App:  "geo",
		Name: "country",
		Fields: []schema.Field{
			{Name: "code", Type: schema.TypeString, PrimaryKey: true},
			{Name: "name", Type: schema.TypeString},
		},
	}

	_, err := s.Insert(ctx, m, schema.Record{"code": "BR", "name": "Brasil"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, m, schema.Record{"code": "BR", "name": "Brazil"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
	_, err = s.Insert(ctx, m, schema.Record{"name": "Nowhere"})
	assert.Error(t, err, "missing key")
}
