package hub

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// SaveCheckpoint writes a checkpoint to disk, creating parent directories.
func SaveCheckpoint(path string, ck *Checkpoint) error {
	data, err := sonic.Marshal(ck)
	if err != nil {
		return fmt.Errorf("marshal checkpoint %s: %w", ck.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	log.Info().Msgf("saved checkpoint %s to %s (%d bytes)", ck.Name, path, len(data))
	return nil
}

// LoadCheckpoint reads a checkpoint from disk.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ck := &Checkpoint{}
	if err := sonic.Unmarshal(data, ck); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint %s: %w", path, err)
	}
	return ck, nil
}

// ResolveCheckpoint returns the named checkpoint, preferring the local
// directory and falling back to the hub. Fetched checkpoints are cached so
// later runs stay offline. A nil hub restricts resolution to the cache.
func ResolveCheckpoint(h *Hub, dir, name string) (*Checkpoint, error) {
	path := filepath.Join(dir, name+".json")
	if ck, err := LoadCheckpoint(path); err == nil {
		log.Info().Msgf("loaded checkpoint %s from %s", name, path)
		return ck, nil
	}
	if h == nil {
		return nil, fmt.Errorf("checkpoint %s is not cached and no hub is configured", name)
	}

	res, err := h.FetchCheckpoint(name)
	if err != nil {
		return nil, err
	}
	ck := res.Data
	if err := SaveCheckpoint(path, &ck); err != nil {
		log.Warn().Err(err).Msgf("failed to cache checkpoint %s", name)
	}
	return &ck, nil
}
