package flags

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	out "ridecover/internal/coverage/application/ports/out"
)

const (
	fieldRetrySetup     = "retry_setup"
	fieldSettingsError  = "settings_error_found"
	fieldSettingsWarned = "settings_warning_found"
)

// RedisStore: флаги водителя в хэше {prefix}:flags:{driver_id},
// водители с retry_setup дополнительно в множестве {prefix}:retry_setup.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ out.FlagStore = (*RedisStore)(nil)

func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ridecover"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) flagsKey(driverID string) string {
	return fmt.Sprintf("%s:flags:%s", s.prefix, driverID)
}

func (s *RedisStore) retryKey() string {
	return s.prefix + ":retry_setup"
}

func (s *RedisStore) get(ctx context.Context, driverID, field string) (bool, error) {
	v, err := s.rdb.HGet(ctx, s.flagsKey(driverID), field).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("hget %s: %w", field, err)
	}
	return v == "1", nil
}

func (s *RedisStore) set(ctx context.Context, driverID, field string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	if err := s.rdb.HSet(ctx, s.flagsKey(driverID), field, val).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", field, err)
	}
	return nil
}

func (s *RedisStore) RetrySetup(ctx context.Context, driverID string) (bool, error) {
	return s.get(ctx, driverID, fieldRetrySetup)
}

// SetRetrySetup обновляет хэш и множество в одной транзакции
func (s *RedisStore) SetRetrySetup(ctx context.Context, driverID string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.flagsKey(driverID), fieldRetrySetup, val)
		if v {
			pipe.SAdd(ctx, s.retryKey(), driverID)
		} else {
			pipe.SRem(ctx, s.retryKey(), driverID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set retry_setup: %w", err)
	}
	return nil
}

func (s *RedisStore) SettingsErrorFound(ctx context.Context, driverID string) (bool, error) {
	return s.get(ctx, driverID, fieldSettingsError)
}

func (s *RedisStore) SetSettingsErrorFound(ctx context.Context, driverID string, v bool) error {
	return s.set(ctx, driverID, fieldSettingsError, v)
}

func (s *RedisStore) SettingsWarningFound(ctx context.Context, driverID string) (bool, error) {
	return s.get(ctx, driverID, fieldSettingsWarned)
}

func (s *RedisStore) SetSettingsWarningFound(ctx context.Context, driverID string, v bool) error {
	return s.set(ctx, driverID, fieldSettingsWarned, v)
}

func (s *RedisStore) DriversPendingRetry(ctx context.Context) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, s.retryKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers retry_setup: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
