package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

const DefaultOutcomeSubject = "stonepaper.match.outcome"

type natsPublisher interface {
	Publish(subj string, data []byte) error
}

type natsNotifier struct {
	publisher natsPublisher
	subject   string
}

// ConnectNATS - opens a connection that keeps reconnecting until closed.
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("stonepaper-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return conn, nil
}

func NewNATSNotifier(publisher natsPublisher, subject string) Notifier {
	if subject == "" {
		subject = DefaultOutcomeSubject
	}

	return &natsNotifier{
		publisher: publisher,
		subject:   subject,
	}
}

// NotifyOutcome - publishes the notice as JSON so a mailer downstream can deliver it.
func (that *natsNotifier) NotifyOutcome(ctx context.Context, notice *entity.OutcomeNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome notice: %w", err)
	}

	if err = that.publisher.Publish(that.subject, data); err != nil {
		return fmt.Errorf("failed to publish outcome notice: %w", err)
	}

	return nil
}
