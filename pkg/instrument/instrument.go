package instrument

import (
	"context"
	"errors"
)

// Kind 标的类型
type Kind string

const (
	KindStock Kind = "stock"
	KindIndex Kind = "index"
)

// Instrument 可交易标的的基础信息
type Instrument struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Kind     Kind   `json:"kind"`
}

// ErrNotFound 按代码或名称均未找到标的
var ErrNotFound = errors.New("未找到标的")

// Store 标的信息存储
type Store interface {
	// Put 批量写入标的信息，同代码覆盖
	Put(ctx context.Context, instruments []Instrument) error

	// Get 按代码精确查找
	Get(ctx context.Context, symbol string) (Instrument, error)

	// All 返回全部标的
	All(ctx context.Context) ([]Instrument, error)
}

// Resolver 把用户输入的代码或名称解析为标的
type Resolver struct {
	store Store
}

// NewResolver 创建标的解析器
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve 先按代码精确匹配，再按名称匹配
func (r *Resolver) Resolve(ctx context.Context, codeOrName string) (Instrument, error) {
	inst, err := r.store.Get(ctx, codeOrName)
	if err == nil {
		return inst, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Instrument{}, err
	}

	all, err := r.store.All(ctx)
	if err != nil {
		return Instrument{}, err
	}
	for _, inst := range all {
		if inst.Name == codeOrName {
			return inst, nil
		}
	}
	return Instrument{}, ErrNotFound
}
