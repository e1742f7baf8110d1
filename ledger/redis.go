package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	cledger "github.com/next-trace/scg-ledger-bus/contract/ledger"
)

// replaceScript performs the compare-and-set server-side so the check and the
// write are one atomic step.
//
// Returns 1 on success, 0 on balance mismatch, -1 when the key is missing.
var replaceScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then return -1 end
if cur ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2])
return 1
`)

// RedisStore keeps one key per account holding the balance as a decimal string.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a Redis-backed store. Keys are prefix + account ID.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisClient configures a Redis client from a URL and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

var _ cledger.Store = (*RedisStore)(nil)

func (s *RedisStore) key(id cledger.AccountID) string { return s.prefix + string(id) }

func (s *RedisStore) Load(ctx context.Context, id cledger.AccountID) (cledger.Account, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return cledger.Account{}, berr.ErrAccountNotFound
	}

	if err != nil {
		return cledger.Account{}, fmt.Errorf("redis load %s: %w", id, err)
	}

	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return cledger.Account{}, fmt.Errorf("redis load %s: malformed balance %q: %w", id, raw, err)
	}

	return cledger.Account{ID: id, Balance: cledger.Balance(balance)}, nil
}

func (s *RedisStore) Replace(ctx context.Context, id cledger.AccountID, expected, next cledger.Balance) error {
	res, err := replaceScript.Run(ctx, s.client, []string{s.key(id)},
		strconv.FormatInt(int64(expected), 10),
		strconv.FormatInt(int64(next), 10),
	).Int()
	if err != nil {
		return fmt.Errorf("redis replace %s: %w", id, err)
	}

	switch res {
	case 1:
		return nil
	case 0:
		return berr.ErrBalanceConflict
	default:
		return berr.ErrAccountNotFound
	}
}

// Seed writes the given balances, creating or overwriting accounts. Intended
// for wiring and tests, not for the command path.
func (s *RedisStore) Seed(ctx context.Context, seed map[cledger.AccountID]cledger.Balance) error {
	for id, balance := range seed {
		if err := s.client.Set(ctx, s.key(id), strconv.FormatInt(int64(balance), 10), 0).Err(); err != nil {
			return fmt.Errorf("redis seed %s: %w", id, err)
		}
	}

	return nil
}
