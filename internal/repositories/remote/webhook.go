// Package remote talks to the stats sync webhook. The webhook is a plain
// HTTP endpoint: GET with an email query returns the stored stats, POST
// replaces them. All of it is best effort; callers treat failures as
// "remote unavailable" and keep going on local data.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/repositories"
)

type webhookStore struct {
	endpoint string
	client   *http.Client
}

func NewWebhookStore(endpoint string) repositories.RemoteStatsStore {
	return &webhookStore{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type pushRequest struct {
	Email string            `json:"email"`
	Data  *models.UserStats `json:"data"`
}

func (s *webhookStore) Fetch(ctx context.Context, email string) (*models.UserStats, error) {
	reqURL := fmt.Sprintf("%s?email=%s", s.endpoint, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote fetch failed: %w", err)
	}
	defer resp.Body.Close()

	// No remote record is a normal state for a fresh user.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote fetch returned status %d", resp.StatusCode)
	}

	var stats models.UserStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode remote stats: %w", err)
	}
	return &stats, nil
}

func (s *webhookStore) Push(ctx context.Context, email string, stats *models.UserStats) error {
	payload, err := json.Marshal(pushRequest{Email: email, Data: stats})
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote push failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("remote push returned status %d", resp.StatusCode)
	}
	return nil
}
