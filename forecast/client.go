package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gridshift/hpwhctl/core/model"
	"github.com/gridshift/hpwhctl/infra/logger"
)

// Config holds the forecast source settings.
type Config struct {
	// Source selects "http" polling or a one-shot "file" read.
	Source string `json:"source"`
	// URL is the forecast endpoint for the http source.
	URL string `json:"url"`
	// Path is the JSON file for the file source.
	Path string `json:"path"`
	// PollIntervalSeconds is the http polling period.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Source == "" {
		c.Source = "http"
	}
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 3600
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Source {
	case "http":
		if c.URL == "" {
			return fmt.Errorf("forecast url required for http source")
		}
	case "file":
		if c.Path == "" {
			return fmt.Errorf("forecast path required for file source")
		}
	default:
		return fmt.Errorf("unknown forecast source %q", c.Source)
	}
	return nil
}

// Client polls an HTTP endpoint for forecasts and converts each one into
// schedule parameters for the driver.
type Client struct {
	cfg      Config
	dev      Device
	out      chan<- model.Parameters
	client   *http.Client
	log      logger.Logger
	interval time.Duration
}

// NewClient creates a forecast poller that delivers parameters on out.
func NewClient(cfg Config, dev Device, out chan<- model.Parameters) *Client {
	cfg.SetDefaults()
	return &Client{
		cfg:      cfg,
		dev:      dev,
		out:      out,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      logger.New("forecast-client"),
		interval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
	}
}

// Start polls immediately and then on every interval until the context is
// cancelled. Poll errors are logged, not fatal.
func (c *Client) Start(ctx context.Context) error {
	if err := c.poll(ctx); err != nil {
		c.log.Errorf("poll error: %v", err)
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.poll(ctx); err != nil {
				c.log.Errorf("poll error: %v", err)
			}
		}
	}
}

func (c *Client) poll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Errorf("close body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("forecast endpoint returned %s", resp.Status)
	}
	var f Forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return fmt.Errorf("decode forecast: %w", err)
	}
	params, err := f.Parameters(c.dev)
	if err != nil {
		return fmt.Errorf("forecast rejected: %w", err)
	}
	select {
	case c.out <- params:
		c.log.Infof("forecast accepted: horizon=%d start=%s", params.N, f.StartTime.Format(time.RFC3339))
	case <-ctx.Done():
	}
	return nil
}

// LoadFile reads a forecast from a local JSON file.
func LoadFile(path string) (Forecast, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Forecast{}, fmt.Errorf("read forecast: %w", err)
	}
	var f Forecast
	if err := json.Unmarshal(data, &f); err != nil {
		return Forecast{}, fmt.Errorf("parse forecast: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Forecast{}, err
	}
	return f, nil
}
