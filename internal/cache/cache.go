package cache

import (
	"encoding/json"
	"errors"

	"petspa-text-bot/internal/flow"
	"petspa-text-bot/internal/logger"

	"github.com/allegro/bigcache/v3"
	"github.com/google/uuid"
)

// per-session flow state serialized into the in-memory cache; a missing
// entry simply means a fresh session at the start node

func GetState(cache *bigcache.BigCache, sessionID uuid.UUID) (*flow.State, bool) {
	b, err := cache.Get(sessionID.String())
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			logger.Warning("Error while reading state from cache", err)
		}
		return flow.NewState(), false
	}

	st := flow.NewState()
	if err := json.Unmarshal(b, st); err != nil {
		logger.Warning("Error while decoding state", err)
		return flow.NewState(), false
	}
	return st, true
}

func SaveState(cache *bigcache.BigCache, sessionID uuid.UUID, st *flow.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		logger.Warning("Error while encoding state", err)
		return err
	}

	if err := cache.Set(sessionID.String(), data); err != nil {
		logger.Warning("Error while writing state to cache", err)
		return err
	}
	return nil
}

func DeleteState(cache *bigcache.BigCache, sessionID uuid.UUID) error {
	err := cache.Delete(sessionID.String())
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}
