package instrument

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketline/pkg/provider/zhitu"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	err := store.Put(context.Background(), []Instrument{
		{Symbol: "600000", Name: "浦发银行", Exchange: "SH", Kind: KindStock},
		{Symbol: "000001", Name: "平安银行", Exchange: "SZ", Kind: KindStock},
		{Symbol: "000001.SH", Name: "上证指数", Exchange: "SH", Kind: KindIndex},
	})
	require.NoError(t, err)
	return store
}

func TestMemoryStore(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	t.Run("按代码查找", func(t *testing.T) {
		inst, err := store.Get(ctx, "600000")
		require.NoError(t, err)
		assert.Equal(t, "浦发银行", inst.Name)
	})

	t.Run("代码不存在", func(t *testing.T) {
		_, err := store.Get(ctx, "999999")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("同代码覆盖", func(t *testing.T) {
		err := store.Put(ctx, []Instrument{
			{Symbol: "600000", Name: "浦发银行A", Exchange: "SH", Kind: KindStock},
		})
		require.NoError(t, err)

		inst, err := store.Get(ctx, "600000")
		require.NoError(t, err)
		assert.Equal(t, "浦发银行A", inst.Name)
		assert.Equal(t, 3, store.Len())
	})

	t.Run("全量列表按代码排序", func(t *testing.T) {
		all, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "000001", all[0].Symbol)
		assert.Equal(t, "000001.SH", all[1].Symbol)
	})
}

func TestResolver(t *testing.T) {
	resolver := NewResolver(seedStore(t))
	ctx := context.Background()

	t.Run("按代码解析", func(t *testing.T) {
		inst, err := resolver.Resolve(ctx, "000001")
		require.NoError(t, err)
		assert.Equal(t, KindStock, inst.Kind)
	})

	t.Run("按名称解析", func(t *testing.T) {
		inst, err := resolver.Resolve(ctx, "上证指数")
		require.NoError(t, err)
		assert.Equal(t, "000001.SH", inst.Symbol)
		assert.Equal(t, KindIndex, inst.Kind)
	})

	t.Run("未找到", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "不存在的股票")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

type stubSource struct {
	stocks  []zhitu.Listing
	indexes []zhitu.Listing
}

func (s *stubSource) ListStocks(ctx context.Context) ([]zhitu.Listing, error) {
	return s.stocks, nil
}

func (s *stubSource) ListIndexes(ctx context.Context) ([]zhitu.Listing, error) {
	return s.indexes, nil
}

func TestRefresherRefresh(t *testing.T) {
	source := &stubSource{
		stocks: []zhitu.Listing{
			{Code: "600000", Name: "浦发银行"},
			{Code: "300750", Name: "宁德时代"},
		},
		indexes: []zhitu.Listing{
			{Code: "000001.SH", Name: "上证指数"},
		},
	}
	store := NewMemoryStore()
	r := NewRefresher(source, store, "0 6 * * *")

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 3, store.Len())

	inst, err := store.Get(context.Background(), "600000")
	require.NoError(t, err)
	assert.Equal(t, "SH", inst.Exchange)
	assert.Equal(t, KindStock, inst.Kind)

	inst, err = store.Get(context.Background(), "300750")
	require.NoError(t, err)
	assert.Equal(t, "SZ", inst.Exchange)

	inst, err = store.Get(context.Background(), "000001.SH")
	require.NoError(t, err)
	assert.Equal(t, KindIndex, inst.Kind)
	assert.Equal(t, "SH", inst.Exchange)
}
