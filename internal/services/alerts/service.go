package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/config"
	"crashalert-model-service/internal/models"
)

// SecretHeader carries the shared secret on every backend call
const SecretHeader = "X-INTERNAL-SECRET"

const maxErrorBody = 1024

// ErrCameraDirectoryDisabled is returned by ListCameras when no directory URL is configured
var ErrCameraDirectoryDisabled = errors.New("camera directory not configured")

// RejectedError means the backend answered with a non-2xx status
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("backend rejected alert: HTTP %d: %s", e.StatusCode, e.Body)
}

// UnreachableError means no HTTP response was received (timeout, refused, DNS)
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// Service talks to the accident backend's internal API.
type Service struct {
	alertURL   string
	camerasURL string
	secret     string
	httpClient *http.Client
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		alertURL:   cfg.BackendURL,
		camerasURL: cfg.CamerasURL,
		secret:     cfg.InternalSecret,
		httpClient: &http.Client{
			Timeout: cfg.BackendTimeout,
		},
	}
}

// Send POSTs the alert exactly once. There is no retry at this layer.
func (s *Service) Send(ctx context.Context, doc models.AlertDocument) (int, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.alertURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, s.secret)

	started := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &RejectedError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	io.Copy(io.Discard, resp.Body)

	log.Debug().
		Int("status", resp.StatusCode).
		Str("camera_id", doc.CameraID).
		Dur("latency", time.Since(started)).
		Msg("Alert accepted by backend")
	return resp.StatusCode, nil
}

// ListCameras fetches the backend's internal camera directory
func (s *Service) ListCameras(ctx context.Context) ([]models.CameraRecord, error) {
	if s.camerasURL == "" {
		return nil, ErrCameraDirectoryDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.camerasURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SecretHeader, s.secret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RejectedError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var cameras []models.CameraRecord
	if err := json.NewDecoder(resp.Body).Decode(&cameras); err != nil {
		return nil, fmt.Errorf("decode camera directory: %w", err)
	}
	return cameras, nil
}
