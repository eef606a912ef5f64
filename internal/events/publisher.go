package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codeduel/internal/model"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const EventMatchFinished = "match.finished"

// Publisher fans domain events out to other services.
type Publisher interface {
	PublishMatchFinished(ctx context.Context, match *model.Match) error
	Close()
}

// Envelope is the wire shape of every published event.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	RoomID    string          `json:"roomId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Subject:       "codeduel.match.finished",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("codeduel"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = DefaultNATSConfig().Subject
	}
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

func (p *NATSPublisher) PublishMatchFinished(ctx context.Context, match *model.Match) error {
	data, err := encodeMatchFinished(match)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set(nats.MsgIdHdr, match.RoomID+":"+match.FinishedAt.UTC().Format(time.RFC3339Nano))
	msg.Data = data

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	// Flush so the event leaves before the caller's deadline expires.
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", p.subject, err)
	}

	log.Debug().
		Str("subject", p.subject).
		Str("room_id", match.RoomID).
		Msg("published match event")
	return nil
}

func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("NATS drain failed")
		p.nc.Close()
	}
}

func encodeMatchFinished(match *model.Match) ([]byte, error) {
	payload, err := json.Marshal(match)
	if err != nil {
		return nil, fmt.Errorf("marshal match: %w", err)
	}
	env := Envelope{
		EventID:   uuid.NewString(),
		EventType: EventMatchFinished,
		RoomID:    match.RoomID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishMatchFinished(context.Context, *model.Match) error { return nil }

func (NopPublisher) Close() {}
