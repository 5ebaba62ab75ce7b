// Package rediscache implements the engine's storage capability
// (host.Host.Save/Load/Reset/SaveBundleState) as Redis string keys, adapted
// from the teacher codebase's internal/db.RedisStore connection and
// instrumentation setup (OpenTelemetry tracing via redisotel) but retargeted
// from frequency-cap counters to durable blob storage.
package rediscache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store persists named byte blobs in Redis under a namespaced key.
type Store struct {
	client    *redis.Client
	ctx       context.Context
	namespace string
	logger    *zap.Logger
}

// Open connects to addr and wraps the client with OpenTelemetry tracing
// instrumentation, namespacing every key under namespace.
func Open(addr, namespace string, logger *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", addr))
	return &Store{client: client, ctx: ctx, namespace: namespace, logger: logger}, nil
}

func (s *Store) key(name string) string {
	return s.namespace + ":" + name
}

// Save writes value under name. cb is invoked synchronously with the
// outcome, matching host.Host's asynchronous-callback contract.
func (s *Store) Save(name string, value []byte, cb func(ok bool)) {
	if err := s.client.Set(s.ctx, s.key(name), value, 0).Err(); err != nil {
		s.logger.Error("redis save failed", zap.String("name", name), zap.Error(err))
		cb(false)
		return
	}
	cb(true)
}

// Load reads the value stored under name. ok is false if the key is absent
// or the read failed.
func (s *Store) Load(name string, cb func(ok bool, value []byte)) {
	val, err := s.client.Get(s.ctx, s.key(name)).Bytes()
	if err != nil {
		cb(false, nil)
		return
	}
	cb(true, val)
}

// Reset deletes the value stored under name.
func (s *Store) Reset(name string, cb func(ok bool)) {
	if err := s.client.Del(s.ctx, s.key(name)).Err(); err != nil {
		s.logger.Error("redis reset failed", zap.String("name", name), zap.Error(err))
		cb(false)
		return
	}
	cb(true)
}

// Close shuts down the underlying Redis client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
