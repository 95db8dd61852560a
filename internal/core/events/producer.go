// Package events publishes committed spam reports to Kafka.
package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/duynhne/callerid-service/config"
	"github.com/duynhne/callerid-service/internal/core/domain"
)

const EventSpamReported = "spam.reported"

// SpamReportedEvent is the message value. Keyed by phone number so every
// report for one number lands on the same partition.
type SpamReportedEvent struct {
	Type             string    `json:"type"`
	ReportID         int64     `json:"report_id"`
	PhoneNumber      string    `json:"phone_number"`
	ReporterID       int64     `json:"reporter_id"`
	ReporterUsername string    `json:"reporter_username"`
	ReportedAt       time.Time `json:"reported_at"`
}

// MessageWriter is the subset of *kafka.Writer the producer needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer implements domain.ReportPublisher
type Producer struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewProducer builds a synchronous writer for cfg.Topic
func NewProducer(cfg config.KafkaConfig) *Producer {
	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}
	if cfg.TLS {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return NewProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		Transport:    transport,
		WriteTimeout: 10 * time.Second,
	})
}

func NewProducerWithWriter(w MessageWriter) *Producer {
	return &Producer{writer: w, timeout: 5 * time.Second}
}

func (p *Producer) PublishSpamReported(ctx context.Context, report *domain.SpamReport) error {
	if p == nil || p.writer == nil {
		return nil
	}

	value, err := json.Marshal(SpamReportedEvent{
		Type:             EventSpamReported,
		ReportID:         report.ID,
		PhoneNumber:      report.PhoneNumber,
		ReporterID:       report.ReporterID,
		ReporterUsername: report.ReporterUsername,
		ReportedAt:       report.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode spam report event: %w", err)
	}

	// Detached from the request so a client disconnect after commit still publishes.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.PhoneNumber),
		Value: value,
		Time:  report.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventSpamReported)},
			{Key: "report_id", Value: []byte(strconv.FormatInt(report.ID, 10))},
		},
	})
	if err != nil {
		return fmt.Errorf("publish spam report %d: %w", report.ID, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
