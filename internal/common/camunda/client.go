// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"loan-origination/internal/common/config"
	"loan-origination/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client is the Zeebe gateway connection shared by workers and the sanction publisher.
type Client struct {
	zeebe  zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress string
	Plaintext      bool
	// DialTimeout bounds the topology request made on connect and by HealthCheck.
	DialTimeout time.Duration
	// RequestTimeout bounds each attempt of a command; zero leaves it to the caller's context.
	RequestTimeout time.Duration
	Backoff        Backoff
}

// Backoff doubles Base after every failed attempt, capped at Max.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

var DefaultBackoff = Backoff{Attempts: 3, Base: time.Second, Max: 10 * time.Second}

func (b Backoff) delay(attempt int) time.Duration {
	d := b.Base << attempt
	if d <= 0 || d > b.Max {
		return b.Max
	}
	return d
}

// NewClient connects to the broker named in the camunda config section.
func NewClient(cfg config.CamundaConfig) (*Client, error) {
	return Dial(&ClientConfig{
		GatewayAddress: cfg.BrokerAddress,
		Plaintext:      true,
		DialTimeout:    10 * time.Second,
		RequestTimeout: config.GetDuration(cfg.RequestTimeout),
		Backoff:        DefaultBackoff,
	})
}

// Dial opens the gRPC connection and fails unless the broker answers a topology request.
func Dial(cfg *ClientConfig) (*Client, error) {
	zeebe, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.Plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{zeebe: zeebe, config: cfg}
	if err := c.HealthCheck(context.Background()); err != nil {
		zeebe.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.GatewayAddress, err)
	}
	return c, nil
}

// GetClient exposes the raw client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.zeebe
}

func (c *Client) Close() error {
	return c.zeebe.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.DialTimeout)
	defer cancel()

	if _, err := c.zeebe.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// Deploy uploads BPMN resources and returns the deployment key.
func (c *Client) Deploy(ctx context.Context, paths ...string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	resources := make(map[string][]byte, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return 0, fmt.Errorf("read resource: %w", err)
		}
		resources[filepath.Base(p)] = raw
	}

	return Retry(ctx, c, "deploy", func(ctx context.Context) (int64, error) {
		cmd := c.zeebe.NewDeployResourceCommand()
		for name, raw := range resources {
			cmd = cmd.AddResource(raw, name)
		}
		resp, err := cmd.Send(ctx)
		if err != nil {
			return 0, err
		}
		return resp.GetKey(), nil
	})
}

// Retry runs fn until it succeeds, fails permanently or the backoff is spent.
// Final errors are mapped to StandardErrors.
func Retry[T any](ctx context.Context, c *Client, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	b := c.config.Backoff

	for attempt := 0; ; attempt++ {
		result, err := withTimeout(ctx, c.config.RequestTimeout, fn)
		if err == nil {
			return result, nil
		}
		if !transient(err) || attempt >= b.Attempts {
			return zero, classify(err, operation, attempt+1)
		}

		select {
		case <-time.After(b.delay(attempt)):
		case <-ctx.Done():
			return zero, fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}
}

func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

var transientPhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
	"resource_exhausted",
	"resource exhausted",
}

func transient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// classify maps a gateway error onto the error catalogue.
func classify(err error, operation string, attempts int) error {
	wrapped := fmt.Errorf("zeebe %s failed after %d attempt(s): %w", operation, attempts, err)
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "not found"):
		stdErr := errors.NewProcessStartFailedError(operation, wrapped)
		stdErr.Retryable = false
		return stdErr
	case strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "unauthenticated"):
		return errors.NewUnauthorizedError(wrapped.Error())
	default:
		return errors.NewExternalServiceError("zeebe", wrapped)
	}
}
