package redis

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/prodex/internal/db"
)

const scanPageSize = 100

// hsetIfExists writes ARGV field/value pairs only when KEYS[1] exists.
var hsetIfExists = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

func (s *Store) hsetCmd(key string, fields map[string]string) rueidis.Completed {
	cmd := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	return cmd.Build()
}

// HSetIfExists sets hash fields in one server-side step, but only on an
// existing hash. It reports whether the write happened.
func (s *Store) HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error) {
	if len(fields) == 0 {
		return false, fmt.Errorf("HSetIfExists %s: empty fields", key)
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	args := make([]string, 0, 2*len(names))
	for _, k := range names {
		args = append(args, k, fields[k])
	}

	n, err := hsetIfExists.Exec(ctx, s.client, []string{key}, args).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", key, err)}
	}
	return n == 1, nil
}

// HReplace deletes the hash and writes fields inside one MULTI/EXEC,
// so readers never observe a half-written record.
func (s *Store) HReplace(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return fmt.Errorf("HReplace %s: empty fields", key)
	}

	results := s.client.DoMulti(ctx,
		s.b().Multi().Build(),
		s.b().Del().Key(key).Build(),
		s.hsetCmd(key, fields),
		s.b().Exec().Build(),
	)
	for _, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("key %s: %w", key, err)}
		}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	if len(m) == 0 {
		return nil, db.ErrKeyNotFound
	}
	return m, nil
}

// HGetAllMulti fetches all fields for multiple hashes in a single DoMulti round-trip.
// Missing keys produce empty maps at their position.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]map[string]string, len(results))

	for i, res := range results {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = m
	}

	return out, nil
}

// Del deletes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.CountExisting(ctx, []string{key})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountExisting returns how many of keys exist (EXISTS k1 k2 ...).
func (s *Store) CountExisting(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	cmd := s.b().Exists().Key(keys...).Build()
	count, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpExists, Err: err}
	}
	return int(count), nil
}

// ScanEach walks SCAN cursors and hands every non-empty page to fn.
func (s *Store) ScanEach(ctx context.Context, pattern string, fn func(keys []string) error) error {
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(scanPageSize).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return &db.Error{Op: db.OpScan, Err: err}
		}
		if len(res.Elements) > 0 {
			if err := fn(res.Elements); err != nil {
				return err
			}
		}
		cursor = res.Cursor
		if cursor == 0 {
			return nil
		}
	}
}
