// Package hub provides a client for the checkpoint hub, an HTTP service that
// stores pretrained models and their vocabularies.
package hub

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/MishaK15/SmartSparse/internal/config"
)

// Hub is a client wrapper for the checkpoint hub HTTP API.
type Hub struct {
	client  *resty.Client
	BaseURL string
}

// NewHub creates a hub client from the provided environment configuration.
func NewHub(cfg *config.HubEnvConfig) (*Hub, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if cfg.HubURL == "" {
		return nil, fmt.Errorf("hub url is not configured")
	}

	client := resty.New().
		SetBaseURL(cfg.HubURL).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(cfg.ClientTimeout)

	return &Hub{
		client:  client,
		BaseURL: cfg.HubURL,
	}, nil
}

func getJSON[T any](client *resty.Client, path string) (Response[T], error) {
	var result Response[T]
	resp, err := client.R().
		SetResult(&result).
		Get(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("get request failed")
		return Response[T]{}, fmt.Errorf("get %s: %w", path, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Str("path", path).Msg("get non-2xx")
		return Response[T]{}, fmt.Errorf("request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		log.Error().Interface("error", result.Error).Str("path", path).Msg("response contains error")
		return Response[T]{}, fmt.Errorf("response error: %v", result.Error)
	}
	return result, nil
}

func postJSON[T any](client *resty.Client, path string, body any) (Response[T], error) {
	var result Response[T]
	resp, err := client.R().
		SetBody(body).
		SetResult(&result).
		Post(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("post request failed")
		return Response[T]{}, fmt.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Str("path", path).Msg("post non-2xx")
		return Response[T]{}, fmt.Errorf("request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		log.Error().Interface("error", result.Error).Str("path", path).Msg("response contains error")
		return Response[T]{}, fmt.Errorf("response error: %v", result.Error)
	}
	return result, nil
}

// FetchCheckpoint downloads the named checkpoint.
func (h *Hub) FetchCheckpoint(name string) (CheckpointResponse, error) {
	path := fmt.Sprintf("/checkpoints/%s", name)
	return getJSON[Checkpoint](h.client, path)
}

// ListCheckpoints fetches the hub index.
func (h *Hub) ListCheckpoints() (CheckpointListResponse, error) {
	return getJSON[[]CheckpointSummary](h.client, "/checkpoints")
}

// PublishCheckpoint uploads a checkpoint and returns its hub name.
func (h *Hub) PublishCheckpoint(ck *Checkpoint) (PublishResponse, error) {
	return postJSON[string](h.client, "/checkpoints", ck)
}
