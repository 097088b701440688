package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"registrar/internal/domain"
	"registrar/pkg/platform/sentinel"
)

const (
	txKeyPrefix     = "registrar:payment:tx:"
	activeKeyPrefix = "registrar:payment:active:"

	DefaultRetention = 7 * 24 * time.Hour
)

// clearActive deletes the index entry only while it still points at this payment.
var clearActive = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore shares transactions across registrar instances.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	nowF      func() time.Time
}

type RedisOption func(*RedisStore)

// WithRetention sets how long transactions are kept after their last write.
func WithRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

func WithClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.nowF = now
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		retention: DefaultRetention,
		nowF:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Save writes the transaction and maintains the active index. The index
// entry expires with the payment so an abandoned checkout frees the slot.
func (s *RedisStore) Save(ctx context.Context, tx *domain.PaymentTransaction) error {
	if tx == nil || tx.PaymentID == "" {
		return sentinel.ErrInvalidState
	}
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal payment %s: %w", tx.PaymentID, err)
	}
	idx := activeKeyPrefix + activeKey(tx.EventID, tx.AttendeeID)

	if tx.Status.IsTerminal() || !owned(tx) {
		if err := s.client.Set(ctx, txKeyPrefix+tx.PaymentID, data, s.retention).Err(); err != nil {
			return fmt.Errorf("save payment %s: %w", tx.PaymentID, err)
		}
		if !tx.Status.IsTerminal() || !owned(tx) {
			return nil
		}
		if err := clearActive.Run(ctx, s.client, []string{idx}, tx.PaymentID).Err(); err != nil {
			return fmt.Errorf("clear active payment %s: %w", tx.PaymentID, err)
		}
		return nil
	}

	ttl := s.retention
	if tx.PaymentExpiry != nil {
		ttl = tx.PaymentExpiry.Sub(s.nowF())
		if ttl <= 0 {
			ttl = time.Second
		}
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, txKeyPrefix+tx.PaymentID, data, s.retention)
		pipe.Set(ctx, idx, tx.PaymentID, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save payment %s: %w", tx.PaymentID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, paymentID string) (*domain.PaymentTransaction, error) {
	data, err := s.client.Get(ctx, txKeyPrefix+paymentID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}
	var tx domain.PaymentTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("decode payment %s: %w", paymentID, err)
	}
	return &tx, nil
}

func (s *RedisStore) FindActive(ctx context.Context, eventID, attendeeID string, now time.Time) (*domain.PaymentTransaction, error) {
	id, err := s.client.Get(ctx, activeKeyPrefix+activeKey(eventID, attendeeID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active payment: %w", err)
	}
	tx, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tx.IsActive(now) {
		return nil, sentinel.ErrNotFound
	}
	return tx, nil
}
