package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/storage"
)

// ErrTxConflict is returned when a room update keeps losing optimistic-lock races
var ErrTxConflict = errors.New("redis transaction conflict")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keyspace
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   newKeyspace(cfg.KeyPrefix),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room writes

func (s *Storage) UpsertRoom(ctx context.Context, rec *model.RoomRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// Record and index are written together
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.room(rec.Code), data, s.cfg.RoomTTL)
	pipe.ZAdd(ctx, s.keys.roomsByCreated(), redis.Z{
		Score:  float64(rec.CreatedAt.UnixMilli()),
		Member: string(rec.Code),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) UpdateSlot(ctx context.Context, code model.RoomCode, color model.Color, userID model.UserID, conn model.ConnID) error {
	return s.update(ctx, code, func(rec *model.RoomRecord) {
		if userID == 0 && conn == "" {
			delete(rec.Slots, color)
			return
		}
		if rec.Slots == nil {
			rec.Slots = make(map[model.Color]model.SlotRecord)
		}
		rec.Slots[color] = model.SlotRecord{UserID: userID, Conn: conn}
	})
}

func (s *Storage) MarkStarted(ctx context.Context, code model.RoomCode, startedAt time.Time) error {
	return s.update(ctx, code, func(rec *model.RoomRecord) {
		rec.Started = true
		rec.StartedAt = startedAt
	})
}

func (s *Storage) SaveGameState(ctx context.Context, code model.RoomCode, state *model.GameState) error {
	return s.update(ctx, code, func(rec *model.RoomRecord) {
		rec.Game = state.Clone()
		rec.GameOver = state != nil && state.GameOver
	})
}

func (s *Storage) ResetGame(ctx context.Context, code model.RoomCode) error {
	return s.update(ctx, code, func(rec *model.RoomRecord) {
		rec.Game = nil
		rec.Started = false
		rec.StartedAt = time.Time{}
		rec.GameOver = false
	})
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keys.room(code))
	pipe.ZRem(ctx, s.keys.roomsByCreated(), string(code))
	_, err := pipe.Exec(ctx)
	return err
}

// update applies fn to a stored record under WATCH, retrying on conflict.
// A missing record is left alone.
func (s *Storage) update(ctx context.Context, code model.RoomCode, fn func(*model.RoomRecord)) error {
	key := s.keys.room(code)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return err
		}

		var rec model.RoomRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		fn(&rec)

		out, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, redis.KeepTTL)
			return nil
		})
		return err
	}

	retries := max(s.cfg.TxRetries, 1)
	for range retries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: room %s", ErrTxConflict, code)
}

// Room reads

func (s *Storage) LoadRoom(ctx context.Context, code model.RoomCode) (*model.RoomRecord, error) {
	data, err := s.client.Get(ctx, s.keys.room(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var rec model.RoomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Storage) LoadActiveRooms(ctx context.Context, createdAfter time.Time) ([]*model.RoomRecord, error) {
	codes, err := s.client.ZRangeByScore(ctx, s.keys.roomsByCreated(), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(createdAfter.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, nil
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = s.keys.room(model.RoomCode(code))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var out []*model.RoomRecord
	for _, v := range values {
		// Expired records leave their index entry behind
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec model.RoomRecord
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, err
		}
		if rec.GameOver || !rec.CreatedAt.After(createdAfter) {
			continue
		}
		out = append(out, &rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	n, err := s.client.Exists(ctx, s.keys.room(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// User operations

// AddUser registers a user. Used to seed accounts in tests and local runs.
func (s *Storage) AddUser(ctx context.Context, user *model.User) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.user(user.ID), user.Username, 0)
	pipe.Set(ctx, s.keys.username(user.Username), int64(user.ID), 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) LookupUserID(ctx context.Context, username string) (model.UserID, error) {
	id, err := s.client.Get(ctx, s.keys.username(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, model.ErrUserNotFound
		}
		return 0, err
	}
	return model.UserID(id), nil
}

func (s *Storage) LookupUsername(ctx context.Context, id model.UserID) (string, error) {
	name, err := s.client.Get(ctx, s.keys.user(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrUserNotFound
		}
		return "", err
	}
	return name, nil
}
