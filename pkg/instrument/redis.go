package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "marketline:instrument:"

// RedisStore 基于Redis的标的存储，多个实例间共享
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 创建Redis标的存储。
// ttl 为0时键不过期。
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Put 批量写入标的信息，同代码覆盖
func (r *RedisStore) Put(ctx context.Context, instruments []Instrument) error {
	pipe := r.client.Pipeline()
	for _, inst := range instruments {
		data, err := json.Marshal(inst)
		if err != nil {
			return fmt.Errorf("序列化标的 %s 失败: %w", inst.Symbol, err)
		}
		pipe.Set(ctx, redisKeyPrefix+inst.Symbol, data, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Get 按代码精确查找
func (r *RedisStore) Get(ctx context.Context, symbol string) (Instrument, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+symbol).Bytes()
	if err == redis.Nil {
		return Instrument{}, ErrNotFound
	}
	if err != nil {
		return Instrument{}, err
	}

	var inst Instrument
	if err := json.Unmarshal(data, &inst); err != nil {
		return Instrument{}, fmt.Errorf("反序列化标的 %s 失败: %w", symbol, err)
	}
	return inst, nil
}

// All 返回全部标的。
// 使用 SCAN 遍历避免阻塞Redis。
func (r *RedisStore) All(ctx context.Context) ([]Instrument, error) {
	var out []Instrument
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}

		var inst Instrument
		if err := json.Unmarshal(data, &inst); err != nil {
			continue
		}
		out = append(out, inst)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
