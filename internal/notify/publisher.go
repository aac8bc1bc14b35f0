// Package notify publishes gateway state transitions to NATS JetStream
// for downstream consumers. Publishing is best-effort: the Postgres
// event log is the durable record, so a failed publish is logged and
// skipped rather than retried.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PerpGateway/internal/event"
	"PerpGateway/internal/observability"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

const (
	// StreamName holds all outbound gateway notifications
	StreamName = "PERP_GATEWAY_EVENTS"

	subjectPrefix = "perp.gateway.events"
)

// wireEvent is the published JSON shape
type wireEvent struct {
	EventID   string          `json:"event_id"`
	Sequence  uint64          `json:"sequence"`
	EventType string          `json:"event_type"`
	UserID    *string         `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Publisher drains the notify channel and publishes to JetStream
type Publisher struct {
	js        jetstream.JetStream
	inputChan <-chan event.Envelope
	metrics   *observability.Metrics
	log       zerolog.Logger
}

func NewPublisher(js jetstream.JetStream, inputChan <-chan event.Envelope, metrics *observability.Metrics, log zerolog.Logger) *Publisher {
	return &Publisher{
		js:        js,
		inputChan: inputChan,
		metrics:   metrics,
		log:       log,
	}
}

// Run publishes until ctx is cancelled or the channel closes
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case env, ok := <-p.inputChan:
			if !ok {
				return nil
			}
			if err := p.publish(ctx, env); err != nil {
				p.log.Warn().
					Err(err).
					Uint64("sequence", env.Sequence).
					Str("event_type", env.EventType.String()).
					Msg("outbound publish failed")
				continue
			}
			if p.metrics != nil {
				p.metrics.NotifyPublished.Inc()
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, env event.Envelope) error {
	var userID *string
	if env.UserID != nil {
		s := env.UserID.String()
		userID = &s
	}

	data, err := json.Marshal(wireEvent{
		EventID:   env.EventID.String(),
		Sequence:  env.Sequence,
		EventType: env.EventType.String(),
		UserID:    userID,
		Timestamp: env.Timestamp,
		Payload:   env.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, env.EventType.Subject())
	_, err = p.js.Publish(ctx, subject, data)
	return err
}

// EnsureStream creates or updates the outbound notification stream
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create notification stream: %w", err)
	}
	return nil
}

// Connect establishes a NATS connection and returns a JetStream context
func Connect(url string, log zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
