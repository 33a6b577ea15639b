package worker

import (
	"context"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/logo-variants-service/internal/config"
)

// Exported test-only accessors for unexported functions and types.

type (
	MessageForTest     = message
	ObjectStoreForTest = objectStore
	PublisherForTest   = publisher
)

func UnmarshalEventForTest(data []byte) (*LogoSubmittedEvent, error) { return unmarshalEvent(data) }

func VariantObjectNameForTest(header events.EventHeader, variantID string) string {
	return variantObjectName(header, variantID)
}

func NewStreamConfigForTest(name, subject string) *jetstream.StreamConfig {
	return newStreamConfig(name, subject)
}

func NewConsumerConfigForTest(cfg config.NATSConfig) *jetstream.ConsumerConfig {
	return newConsumerConfig(cfg)
}

// RunJobForTest handles msg the way the worker loop does.
func RunJobForTest(
	ctx context.Context,
	msg MessageForTest,
	pub PublisherForTest,
	sources, variants ObjectStoreForTest,
	processor Processor,
	subject string,
	log *logger.Logger,
) {
	j := &job{
		msg:          msg,
		publisher:    pub,
		sourceStore:  sources,
		variantStore: variants,
		processor:    processor,
		log:          log,
		event:        nil,
		subject:      subject,
	}
	j.run(ctx)
}

// NewWorkerForTest builds a Worker around an already bound consumer.
func NewWorkerForTest(consumer jetstream.Consumer, processor Processor, log *logger.Logger) *Worker {
	return &Worker{
		jetStream:    nil,
		consumer:     consumer,
		sourceStore:  nil,
		variantStore: nil,
		processor:    processor,
		log:          log,
		cfg:          config.NATSConfig{},
	}
}
