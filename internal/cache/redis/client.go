package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SetCandidates caches the matchable question pool for one agent.
func (c *Client) SetCandidates(ctx context.Context, agentID string, questions []models.Question, ttl time.Duration) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("failed to marshal candidates: %w", err)
	}

	err = c.client.Set(ctx, candidatesKey(agentID), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set candidates cache: %w", err)
	}

	logger.Debug("Candidates cached", zap.String("agent_id", agentID), zap.Int("questions", len(questions)))
	return nil
}

func (c *Client) GetCandidates(ctx context.Context, agentID string) ([]models.Question, bool, error) {
	data, err := c.client.Get(ctx, candidatesKey(agentID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get candidates cache: %w", err)
	}

	var questions []models.Question
	err = json.Unmarshal(data, &questions)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal candidates: %w", err)
	}

	return questions, true, nil
}

// InvalidateCandidates drops every cached candidate pool. Called on any
// content mutation so a stale pool is never served.
func (c *Client) InvalidateCandidates(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "candidates:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Debug("Candidate cache invalidated")
	return nil
}

// SetIntrospection caches an identity-provider introspection verdict
// keyed by token hash so hot admin tokens skip the round trip.
func (c *Client) SetIntrospection(ctx context.Context, tokenHash, subject string, active bool, ttl time.Duration) error {
	payload := struct {
		Active  bool   `json:"active"`
		Subject string `json:"subject"`
	}{Active: active, Subject: subject}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal introspection result: %w", err)
	}

	err = c.client.Set(ctx, introspectionKey(tokenHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set introspection cache: %w", err)
	}

	return nil
}

func (c *Client) GetIntrospection(ctx context.Context, tokenHash string) (bool, string, bool, error) {
	data, err := c.client.Get(ctx, introspectionKey(tokenHash)).Bytes()
	if err == redis.Nil {
		return false, "", false, nil
	}
	if err != nil {
		return false, "", false, fmt.Errorf("failed to get introspection cache: %w", err)
	}

	var payload struct {
		Active  bool   `json:"active"`
		Subject string `json:"subject"`
	}
	err = json.Unmarshal(data, &payload)
	if err != nil {
		return false, "", false, fmt.Errorf("failed to unmarshal introspection result: %w", err)
	}

	return payload.Active, payload.Subject, true, nil
}

func candidatesKey(agentID string) string {
	return fmt.Sprintf("candidates:%s", agentID)
}

func introspectionKey(tokenHash string) string {
	return fmt.Sprintf("introspect:%s", tokenHash)
}
