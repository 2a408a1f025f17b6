package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	cache "github.com/agentdesk/backend/internal/cache/redis"
	"github.com/agentdesk/backend/internal/metrics"
	"github.com/agentdesk/backend/pkg/circuitbreaker"
	"github.com/agentdesk/backend/pkg/config"
	"github.com/agentdesk/backend/pkg/logger"
	"github.com/agentdesk/backend/pkg/retry"
	"github.com/agentdesk/backend/pkg/utils"
)

// Identity is the subset of the introspection response this service
// cares about.
type Identity struct {
	Active  bool
	Subject string
}

// Client validates bearer tokens against an external identity provider's
// introspection endpoint. Calls go through a retry policy and a circuit
// breaker; verdicts are cached by token hash.
type Client struct {
	introspectionURL string
	clientID         string
	clientSecret     string
	httpClient       *http.Client
	cache            *cache.Client
	cacheTTL         time.Duration
	breaker          *circuitbreaker.CircuitBreaker
	retryCfg         retry.Config
}

func NewClient(cfg config.AuthConfig, cacheClient *cache.Client) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = logger.Named("auth")

	return &Client{
		introspectionURL: cfg.IntrospectionURL,
		clientID:         cfg.ClientID,
		clientSecret:     cfg.ClientSecret,
		httpClient:       &http.Client{Timeout: timeout},
		cache:            cacheClient,
		cacheTTL:         time.Duration(cfg.CacheTTLSec) * time.Second,
		breaker: circuitbreaker.New("idp-introspection", circuitbreaker.Config{
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			Logger:           logger.Named("auth"),
		}),
		retryCfg: retryCfg,
	}
}

func (c *Client) Introspect(ctx context.Context, token string) (Identity, error) {
	tokenHash := utils.HashString(token)

	if c.cache != nil {
		active, subject, hit, err := c.cache.GetIntrospection(ctx, tokenHash)
		if err != nil {
			logger.Warn("Introspection cache read failed", zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues("introspection").Inc()
			return Identity{Active: active, Subject: subject}, nil
		}
		metrics.CacheMisses.WithLabelValues("introspection").Inc()
	}

	var identity Identity
	err := c.breaker.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryCfg, func() error {
			var err error
			identity, err = c.introspect(ctx, token)
			return err
		})
	})
	if err != nil {
		metrics.AuthIntrospections.WithLabelValues("error").Inc()
		return Identity{}, err
	}

	result := "inactive"
	if identity.Active {
		result = "active"
	}
	metrics.AuthIntrospections.WithLabelValues(result).Inc()

	if c.cache != nil {
		if err := c.cache.SetIntrospection(ctx, tokenHash, identity.Subject, identity.Active, c.cacheTTL); err != nil {
			logger.Warn("Introspection cache write failed", zap.Error(err))
		}
	}

	return identity, nil
}

func (c *Client) introspect(ctx context.Context, token string) (Identity, error) {
	form := url.Values{}
	form.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Identity{}, fmt.Errorf("failed to create introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("introspection request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("introspection returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read introspection response: %w", err)
	}

	var payload struct {
		Active   bool   `json:"active"`
		Subject  string `json:"sub"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Identity{}, fmt.Errorf("failed to parse introspection response: %w", err)
	}

	subject := payload.Subject
	if subject == "" {
		subject = payload.Username
	}

	return Identity{Active: payload.Active, Subject: subject}, nil
}
