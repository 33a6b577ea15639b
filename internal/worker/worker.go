// Package worker consumes logo submissions from NATS JetStream and publishes
// the generated variants.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/logo-variants-service/internal/config"
	"github.com/book-expert/logo-variants-service/internal/pipeline"
)

const (
	natsFetchTimeout = 5 * time.Second
	fetchRetryDelay  = 2 * time.Second
	ackWait          = 60 * time.Second
)

// Processor runs one logo through the variant pipeline.
type Processor interface {
	Process(ctx context.Context, requestID string, image []byte) (*pipeline.Result, error)
}

// Worker pulls LogoSubmittedEvents and runs them through a Processor.
type Worker struct {
	jetStream    jetstream.JetStream
	consumer     jetstream.Consumer
	sourceStore  jetstream.ObjectStore
	variantStore jetstream.ObjectStore
	processor    Processor
	log          *logger.Logger
	cfg          config.NATSConfig
}

// New ensures the streams, consumer and object stores exist and binds to them.
func New(
	ctx context.Context,
	jetStream jetstream.JetStream,
	cfg config.NATSConfig,
	processor Processor,
	log *logger.Logger,
) (*Worker, error) {
	if err := setupJetStream(ctx, jetStream, cfg); err != nil {
		return nil, fmt.Errorf("failed to set up JetStream resources: %w", err)
	}

	consumer, err := jetStream.Consumer(ctx, cfg.LogoStreamName, cfg.LogoConsumerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer: %w", err)
	}

	sourceStore, err := jetStream.ObjectStore(ctx, cfg.LogoObjectStoreBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to bind to logo object store: %w", err)
	}

	variantStore, err := jetStream.ObjectStore(ctx, cfg.VariantObjectStoreBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to bind to variant object store: %w", err)
	}

	return &Worker{
		jetStream:    jetStream,
		consumer:     consumer,
		sourceStore:  sourceStore,
		variantStore: variantStore,
		processor:    processor,
		log:          log,
		cfg:          cfg,
	}, nil
}

// Run fetches and handles messages one at a time until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Worker is running, listening for jobs on '%s'...", w.cfg.LogoSubmittedSubject)

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("context error in message loop: %w", ctxErr)
		}

		batch, fetchErr := w.consumer.Fetch(1, jetstream.FetchMaxWait(natsFetchTimeout))
		if fetchErr != nil {
			if errors.Is(fetchErr, context.Canceled) || errors.Is(fetchErr, nats.ErrTimeout) {
				continue
			}

			w.log.Error("Error fetching messages: %v", fetchErr)
			waitBeforeRetry(ctx, fetchRetryDelay)

			continue
		}

		for msg := range batch.Messages() {
			w.newJob(msg).run(ctx)
		}

		if batchErr := batch.Error(); batchErr != nil && !errors.Is(batchErr, nats.ErrTimeout) {
			w.log.Error("Error during message batch processing: %v", batchErr)
		}
	}
}

// waitBeforeRetry pauses after a failed fetch so a lost connection does not
// spin the loop. It returns early when ctx ends.
func waitBeforeRetry(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (w *Worker) newJob(msg message) *job {
	return &job{
		msg:          msg,
		publisher:    w.jetStream,
		sourceStore:  w.sourceStore,
		variantStore: w.variantStore,
		processor:    w.processor,
		log:          w.log,
		subject:      w.cfg.VariantsCreatedSubject,
	}
}

// setupJetStream ensures all required NATS streams and object stores exist.
func setupJetStream(ctx context.Context, jetStream jetstream.JetStream, cfg config.NATSConfig) error {
	streamCfg := newStreamConfig(cfg.LogoStreamName, cfg.LogoSubmittedSubject)

	_, streamErr := jetStream.CreateStream(ctx, *streamCfg)
	if streamErr != nil && !errors.Is(streamErr, jetstream.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create logo stream: %w", streamErr)
	}

	stream, streamErr := jetStream.Stream(ctx, cfg.LogoStreamName)
	if streamErr != nil {
		return fmt.Errorf("failed to get logo stream handle: %w", streamErr)
	}

	_, consumerErr := stream.CreateOrUpdateConsumer(ctx, *newConsumerConfig(cfg))
	if consumerErr != nil {
		return fmt.Errorf("failed to create logo consumer: %w", consumerErr)
	}

	variantStreamCfg := newStreamConfig(cfg.VariantStreamName, cfg.VariantsCreatedSubject)

	_, variantStreamErr := jetStream.CreateStream(ctx, *variantStreamCfg)
	if variantStreamErr != nil && !errors.Is(variantStreamErr, jetstream.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create variant stream: %w", variantStreamErr)
	}

	for _, bucket := range []string{cfg.LogoObjectStoreBucket, cfg.VariantObjectStoreBucket} {
		_, objStoreErr := jetStream.CreateObjectStore(ctx, *newObjectStoreConfig(bucket))
		if objStoreErr != nil && !errors.Is(objStoreErr, jetstream.ErrBucketExists) {
			return fmt.Errorf("failed to create object store '%s': %w", bucket, objStoreErr)
		}
	}

	return nil
}

func newStreamConfig(name, subject string) *jetstream.StreamConfig {
	return &jetstream.StreamConfig{
		Name:                   name,
		Description:            "",
		Subjects:               []string{subject},
		Retention:              jetstream.WorkQueuePolicy,
		MaxConsumers:           -1,
		MaxMsgs:                -1,
		MaxBytes:               -1,
		Discard:                jetstream.DiscardOld,
		DiscardNewPerSubject:   false,
		MaxAge:                 0,
		MaxMsgsPerSubject:      -1,
		MaxMsgSize:             -1,
		Storage:                jetstream.FileStorage,
		Replicas:               1,
		NoAck:                  false,
		Duplicates:             0,
		Placement:              nil,
		Mirror:                 nil,
		Sources:                nil,
		Sealed:                 false,
		DenyDelete:             false,
		DenyPurge:              false,
		AllowRollup:            false,
		Compression:            jetstream.NoCompression,
		FirstSeq:               0,
		SubjectTransform:       nil,
		RePublish:              nil,
		AllowDirect:            false,
		MirrorDirect:           false,
		ConsumerLimits:         jetstream.StreamConsumerLimits{},
		Metadata:               nil,
		Template:               "",
		AllowMsgTTL:            false,
		SubjectDeleteMarkerTTL: 0,
	}
}

func newConsumerConfig(cfg config.NATSConfig) *jetstream.ConsumerConfig {
	return &jetstream.ConsumerConfig{
		Durable:            cfg.LogoConsumerName,
		Name:               "",
		Description:        "",
		FilterSubject:      cfg.LogoSubmittedSubject,
		AckPolicy:          jetstream.AckExplicitPolicy,
		AckWait:            ackWait,
		MaxDeliver:         -1,
		DeliverPolicy:      jetstream.DeliverAllPolicy,
		OptStartSeq:        0,
		OptStartTime:       nil,
		BackOff:            nil,
		ReplayPolicy:       jetstream.ReplayInstantPolicy,
		RateLimit:          0,
		SampleFrequency:    "",
		MaxWaiting:         0,
		MaxAckPending:      -1,
		HeadersOnly:        false,
		MaxRequestBatch:    0,
		MaxRequestExpires:  0,
		MaxRequestMaxBytes: 0,
		InactiveThreshold:  0,
		Replicas:           0,
		MemoryStorage:      false,
		FilterSubjects:     nil,
		Metadata:           nil,
		PauseUntil:         nil,
		PriorityPolicy:     0,
		PinnedTTL:          0,
		PriorityGroups:     nil,
		DeliverSubject:     "",
		DeliverGroup:       "",
		FlowControl:        false,
		IdleHeartbeat:      0,
	}
}

func newObjectStoreConfig(bucket string) *jetstream.ObjectStoreConfig {
	return &jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "",
		TTL:         0,
		MaxBytes:    -1,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Compression: false,
		Metadata:    nil,
	}
}
