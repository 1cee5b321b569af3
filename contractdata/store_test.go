package contractdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/testutil"
)

func stores(t *testing.T) map[string]core.ContractDataStore {
	t.Helper()
	out := map[string]core.ContractDataStore{"memory": NewInMemoryStore()}
	if db, ok := testutil.OpenSQLite(t); ok {
		s, err := NewGormStore(db)
		require.NoError(t, err)
		out["gorm"] = s
	}
	return out
}

func TestStore_SaveGetList(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := core.Container{ID: 3, Type: core.ContainerActivityInstance}

			require.NoError(t, store.Save(ctx, c, map[string]any{
				"comment":  "looks good",
				"approved": true,
				"address":  map[string]any{"street": "Main St"},
			}))

			rec, err := store.Get(ctx, c, "approved")
			require.NoError(t, err)
			assert.Equal(t, true, rec.Value)
			assert.NotEmpty(t, rec.ID)
			assert.Equal(t, c, rec.Container)

			rec, err = store.Get(ctx, c, "address")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"street": "Main St"}, rec.Value)

			_, err = store.Get(ctx, c, "missing")
			assert.ErrorIs(t, err, core.ErrNotFound)

			require.NoError(t, store.Save(ctx, c, map[string]any{"comment": "changed"}))
			list, err := store.List(ctx, c)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, []string{"address", "approved", "comment"}, []string{list[0].Name, list[1].Name, list[2].Name})
			assert.Equal(t, "changed", list[2].Value)

			empty, err := store.List(ctx, core.Container{ID: 4, Type: core.ContainerActivityInstance})
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStore_NumericInputs(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := core.Container{ID: 5, Type: core.ContainerActivityInstance}

			require.NoError(t, store.Save(ctx, c, map[string]any{"age": 30, "rate": 0.25}))

			age, err := store.Get(ctx, c, "age")
			require.NoError(t, err)
			assert.EqualValues(t, 30, age.Value)

			rate, err := store.Get(ctx, c, "rate")
			require.NoError(t, err)
			assert.EqualValues(t, 0.25, rate.Value)
		})
	}
}
