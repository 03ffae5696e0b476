package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/gridshift/hpwhctl/core/cta2045"
	"github.com/gridshift/hpwhctl/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Topic      string `json:"topic"`
	QoS        byte   `json:"qos"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "hpwhctl"
	}
	if c.Topic == "" {
		c.Topic = "hpwh/command"
	}
}

// CommandMessage is the JSON payload delivered to the device topic.
type CommandMessage struct {
	ID       string    `json:"id"`
	PlanID   string    `json:"plan_id"`
	Step     int       `json:"step"`
	Command  int       `json:"command"`
	Name     string    `json:"name"`
	IssuedAt time.Time `json:"issued_at"`
}

// CommandPublisher delivers CTA-2045 commands to the device topic over MQTT.
type CommandPublisher struct {
	cli   paho.Client
	topic string
	qos   byte
	log   logger.Logger
}

// NewCommandPublisher connects to the broker and returns a ready publisher.
func NewCommandPublisher(cfg Config) (*CommandPublisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	cli := paho.NewClient(opts)
	token := cli.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &CommandPublisher{
		cli:   cli,
		topic: cfg.Topic,
		qos:   cfg.QoS,
		log:   logger.New("mqtt-publisher"),
	}, nil
}

// NewClientOptions builds the Paho options from the configuration.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := newTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func newTLSConfig(cfg Config) (*tls.Config, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CABundle != "" {
		ca, err := os.ReadFile(cfg.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("parse ca bundle %s", cfg.CABundle)
		}
		tlsCfg.RootCAs = pool
	}
	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client keypair: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// PublishCommand implements the horizon Publisher interface.
func (p *CommandPublisher) PublishCommand(ctx context.Context, planID string, step int, cmd cta2045.Command) error {
	msg := CommandMessage{
		ID:       uuid.NewString(),
		PlanID:   planID,
		Step:     step,
		Command:  int(cmd),
		Name:     cmd.String(),
		IssuedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	token := p.cli.Publish(p.topic, p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	p.log.Debugw("command published", map[string]any{
		"plan_id": planID,
		"step":    step,
		"command": cmd.String(),
	})
	return nil
}

// Close disconnects from the broker.
func (p *CommandPublisher) Close() {
	p.cli.Disconnect(250)
}
