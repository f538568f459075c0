package store

import (
	"encoding/json"
	"fmt"
)

// Storage keys.
const (
	SessionKey  = "auth-storage"
	ProgressKey = "progress-storage"
)

const stateVersion = 0

// Storage is the durable key-value port. Get returns [shared.ErrNotFound] for absent keys.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

type envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

func encodeState[T any](state T) ([]byte, error) {
	return json.Marshal(envelope[T]{State: state, Version: stateVersion})
}

// loadState reads key into out. Any error leaves out untouched.
func loadState[T any](s Storage, key string, out *T) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("corrupt %s: %w", key, err)
	}
	*out = env.State
	return nil
}
