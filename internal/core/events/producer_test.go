package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/callerid-service/config"
	"github.com/duynhne/callerid-service/internal/core/domain"
)

type fakeWriter struct {
	messages []kafka.Message
	ctxErr   error
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.ctxErr = ctx.Err()
	w.messages = append(w.messages, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishSpamReported(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := p.PublishSpamReported(context.Background(), &domain.SpamReport{
		ID:               11,
		ReporterID:       3,
		ReporterUsername: "alice",
		PhoneNumber:      "+1555000000",
		CreatedAt:        at,
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "+1555000000", string(msg.Key))
	assert.Equal(t, at, msg.Time)

	var event SpamReportedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, SpamReportedEvent{
		Type:             EventSpamReported,
		ReportID:         11,
		PhoneNumber:      "+1555000000",
		ReporterID:       3,
		ReporterUsername: "alice",
		ReportedAt:       at,
	}, event)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, EventSpamReported, headers["event_type"])
	assert.Equal(t, "11", headers["report_id"])
}

func TestPublishIgnoresRequestCancellation(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.PublishSpamReported(ctx, &domain.SpamReport{ID: 1, PhoneNumber: "+1555000000"}))
	assert.NoError(t, w.ctxErr)
}

func TestPublishWrapsWriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w)

	err := p.PublishSpamReported(context.Background(), &domain.SpamReport{ID: 5, PhoneNumber: "+1555000000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish spam report 5")
}

func TestNilProducerIsNoop(t *testing.T) {
	var p *Producer
	assert.NoError(t, p.PublishSpamReported(context.Background(), &domain.SpamReport{}))
	assert.NoError(t, p.Close())
}

func TestNewProducerConfiguresWriter(t *testing.T) {
	p := NewProducer(config.KafkaConfig{Broker: "localhost:9092", Topic: "spam.reported", Username: "u", Password: "p", TLS: true})
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "spam.reported", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)

	transport, ok := w.Transport.(*kafka.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.SASL)
	assert.NotNil(t, transport.TLS)
	require.NoError(t, p.Close())
}
