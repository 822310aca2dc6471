package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/pipeline"
)

// Writer produces one message per record to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given brokers and topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes every record of the bulletin and publishes them in a single
// WriteMessages call. Records of the same point and day share a key, so they
// land on the same partition.
func (w *Writer) Load(ctx context.Context, b domain.Bulletin) error {
	if len(b.Records) == 0 {
		return nil
	}
	runID := pipeline.RunID(ctx)
	msgs := make([]kafkago.Message, len(b.Records))
	for i := range b.Records {
		msg, err := serializeToMessage(b.Records[i], runID)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish bulletin %s: %w", b.Metadata.Number, err)
	}
	w.logger.Debug("bulletin published", "bulletin", b.Metadata.Number, "messages", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey identifies one point on one day of one bulletin.
func messageKey(r domain.Record) string {
	return r.BulletinNo + "|" + r.PointCode + "|" + r.CollectedOn
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(r domain.Record, runID string) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(r)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "numero_boletim", Value: []byte(r.BulletinNo)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "data_extracao", Value: []byte(r.ExtractedAt)},
		},
	}, nil
}
