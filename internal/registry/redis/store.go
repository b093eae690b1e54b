package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/registry"
)

// Store is a Redis-backed implementation of the registry interface
type Store struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis registry store
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ registry.Store = (*Store)(nil)

// binding is the stored form of the connection -> (room, name) index
type binding struct {
	Room model.RoomCode `json:"room"`
	Name model.Username `json:"name"`
}

// Host mapping operations

func (s *Store) SetHost(ctx context.Context, code model.RoomCode, conn model.ConnID) error {
	// Drop the old host's reverse index if the room is being reclaimed
	old, err := s.client.Get(ctx, hostKey(code)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.client.Pipeline()
	if err == nil && old != string(conn) {
		pipe.Del(ctx, hostedByKey(model.ConnID(old)))
	}
	pipe.Set(ctx, hostKey(code), string(conn), s.cfg.RoomTTL)
	pipe.Set(ctx, hostedByKey(conn), string(code), s.cfg.RoomTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) HostOf(ctx context.Context, code model.RoomCode) (model.ConnID, error) {
	host, err := s.client.Get(ctx, hostKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrRoomNotFound
		}
		return "", err
	}
	return model.ConnID(host), nil
}

func (s *Store) ReleaseHost(ctx context.Context, code model.RoomCode, conn model.ConnID) error {
	current, err := s.client.Get(ctx, hostKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	// A newer host may have reclaimed the code after a reconnect
	if current != string(conn) {
		return nil
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, hostKey(code))
	pipe.Del(ctx, hostedByKey(conn))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	exists, err := s.client.Exists(ctx, hostKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Name registry operations

func (s *Store) ClaimName(ctx context.Context, code model.RoomCode, name model.Username, conn model.ConnID) error {
	// A connection may hold at most one (room, name) binding
	data, err := s.client.Get(ctx, bindingKey(conn)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if err == nil {
		var b binding
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		if b.Room != code || b.Name != name {
			return model.ErrAlreadyBound
		}
	}

	ok, err := s.client.HSetNX(ctx, namesKey(code), string(name), string(conn)).Result()
	if err != nil {
		return err
	}
	if !ok {
		holder, err := s.client.HGet(ctx, namesKey(code), string(name)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if holder != string(conn) {
			return model.ErrNameTaken
		}
	}

	bindingData, err := json.Marshal(binding{Room: code, Name: name})
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, bindingKey(conn), bindingData, s.cfg.RoomTTL)
	pipe.Expire(ctx, namesKey(code), s.cfg.RoomTTL) // Keep hash TTL in sync
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) ReleaseName(ctx context.Context, code model.RoomCode, name model.Username) error {
	conn, err := s.client.HGet(ctx, namesKey(code), string(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.HDel(ctx, namesKey(code), string(name))
	pipe.Del(ctx, bindingKey(model.ConnID(conn)))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) ActiveNames(ctx context.Context, code model.RoomCode) ([]model.Username, error) {
	fields, err := s.client.HKeys(ctx, namesKey(code)).Result()
	if err != nil {
		return nil, err
	}

	names := make([]model.Username, 0, len(fields))
	for _, f := range fields {
		names = append(names, model.Username(f))
	}
	return names, nil
}

func (s *Store) ConnFor(ctx context.Context, code model.RoomCode, name model.Username) (model.ConnID, error) {
	conn, err := s.client.HGet(ctx, namesKey(code), string(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrNotInRoom
		}
		return "", err
	}
	return model.ConnID(conn), nil
}

// Reverse lookups

func (s *Store) HostedRoom(ctx context.Context, conn model.ConnID) (model.RoomCode, bool, error) {
	code, err := s.client.Get(ctx, hostedByKey(conn)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.RoomCode(code), true, nil
}

func (s *Store) NameBinding(ctx context.Context, conn model.ConnID) (model.RoomCode, model.Username, bool, error) {
	data, err := s.client.Get(ctx, bindingKey(conn)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", false, nil
		}
		return "", "", false, err
	}

	var b binding
	if err := json.Unmarshal(data, &b); err != nil {
		return "", "", false, err
	}
	return b.Room, b.Name, true, nil
}
