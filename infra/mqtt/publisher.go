// Package mqtt publishes run summaries to an MQTT broker so downstream
// treasury dashboards can react to each optimization without polling files.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/fjtyk95/bankoptimize/core/kpi"
	"github.com/fjtyk95/bankoptimize/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT publisher.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
	// TimeoutMS bounds connect and publish token waits.
	TimeoutMS int `json:"timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "bankoptimize"
	}
	if c.Topic == "" {
		c.Topic = "bankoptimize/runs"
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 5000
	}
}

// Validate checks mandatory fields when the publisher is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

// PlanPublisher publishes one message per optimization run.
type PlanPublisher struct {
	cli     paho.Client
	topic   string
	qos     byte
	timeout time.Duration
	log     logger.Logger
}

// NewPlanPublisher connects to the broker.
func NewPlanPublisher(cfg Config) (*PlanPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true)
	cli := paho.NewClient(opts)
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	tok := cli.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return &PlanPublisher{
		cli:     cli,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: timeout,
		log:     logger.New("mqtt-publisher"),
	}, nil
}

// Publish emits the run record as JSON on the configured topic.
func (p *PlanPublisher) Publish(rec kpi.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tok := p.cli.Publish(p.topic, p.qos, false, payload)
	if !tok.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt publish to %s timed out", p.topic)
	}
	return tok.Error()
}

// Close disconnects from the broker.
func (p *PlanPublisher) Close() {
	p.cli.Disconnect(250)
}
