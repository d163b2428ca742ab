package experiment

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// SaveResults persists an experiment document to disk.
func SaveResults(path string, res *Results) error {
	data, err := sonic.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results %s: %w", path, err)
	}
	log.Info().Msgf("saved results to %s (%d bytes)", path, len(data))
	return nil
}

// LoadResults reads a persisted experiment document. A missing file is
// initialized to an empty document so first runs and the report server see
// the same shape.
func LoadResults(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Msg("results file not found, initializing with empty results")
			res := &Results{CreatedAt: time.Now().UTC()}
			if err := SaveResults(path, res); err != nil {
				return nil, err
			}
			return res, nil
		}
		return nil, fmt.Errorf("read results %s: %w", path, err)
	}

	res := &Results{}
	if err := sonic.Unmarshal(data, res); err != nil {
		return nil, fmt.Errorf("unmarshal results %s: %w", path, err)
	}
	return res, nil
}
