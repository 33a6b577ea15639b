package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/logo-variants-service/internal/logoerr"
	"github.com/book-expert/logo-variants-service/internal/pipeline"
)

// message is the part of jetstream.Msg a job needs.
type message interface {
	Data() []byte
	Ack() error
	Nak() error
	Term() error
	InProgress() error
}

// objectStore is the part of jetstream.ObjectStore a job needs.
type objectStore interface {
	GetBytes(ctx context.Context, name string, opts ...jetstream.GetObjectOpt) ([]byte, error)
	PutBytes(ctx context.Context, name string, data []byte) (*jetstream.ObjectInfo, error)
}

// publisher is the part of jetstream.JetStream a job needs.
type publisher interface {
	Publish(
		ctx context.Context,
		subject string,
		payload []byte,
		opts ...jetstream.PublishOpt,
	) (*jetstream.PubAck, error)
}

// job represents the context for processing a single message.
type job struct {
	msg          message
	publisher    publisher
	sourceStore  objectStore
	variantStore objectStore
	processor    Processor
	log          *logger.Logger
	event        *LogoSubmittedEvent
	subject      string
}

// run executes the full lifecycle of a job and settles the message exactly once.
func (j *job) run(ctx context.Context) {
	event, unmarshalErr := unmarshalEvent(j.msg.Data())
	if unmarshalErr != nil {
		j.log.Error("Failed to create job: %v", unmarshalErr)
		j.term(unmarshalErr)

		return
	}

	j.event = event

	j.log.Info(
		"Received job for WorkflowID [%s]: processing logo key '%s'",
		j.event.Header.WorkflowID,
		j.event.SourceKey,
	)

	if progErr := j.msg.InProgress(); progErr != nil {
		j.log.Warn("Failed to send InProgress update: %v", progErr)
	}

	source, downloadErr := j.sourceStore.GetBytes(ctx, j.event.SourceKey)
	if downloadErr != nil {
		if errors.Is(downloadErr, jetstream.ErrObjectNotFound) {
			j.term(downloadErr)

			return
		}

		j.nak(fmt.Errorf("failed to get logo '%s' from object store: %w", j.event.SourceKey, downloadErr))

		return
	}

	result, processErr := j.processor.Process(ctx, j.event.Header.WorkflowID, source)
	if processErr != nil {
		if errors.Is(processErr, logoerr.ErrInvalidImage) {
			j.term(processErr)

			return
		}

		j.nak(processErr)

		return
	}

	refs, uploadErr := j.uploadVariants(ctx, result)
	if uploadErr != nil {
		j.nak(uploadErr)

		return
	}

	if publishErr := j.publishVariantsCreated(ctx, refs, result); publishErr != nil {
		j.nak(publishErr)

		return
	}

	j.ack()
}

// uploadVariants stores every variant; any failure fails the whole job.
func (j *job) uploadVariants(ctx context.Context, result *pipeline.Result) ([]VariantRef, error) {
	refs := make([]VariantRef, 0, len(result.Variants))

	for _, variant := range result.Variants {
		objectName := variantObjectName(j.event.Header, variant.ID)

		if _, putErr := j.variantStore.PutBytes(ctx, objectName, variant.PNG); putErr != nil {
			return nil, fmt.Errorf("failed to upload '%s': %w", objectName, putErr)
		}

		j.log.Info("Job [%s]: Uploaded '%s'", j.event.Header.WorkflowID, objectName)

		refs = append(refs, VariantRef{
			ID:        variant.ID,
			Label:     variant.Label,
			ObjectKey: objectName,
		})
	}

	return refs, nil
}

// publishVariantsCreated marshals and publishes a LogoVariantsCreatedEvent.
func (j *job) publishVariantsCreated(
	ctx context.Context,
	refs []VariantRef,
	result *pipeline.Result,
) error {
	created := LogoVariantsCreatedEvent{
		Header: events.EventHeader{
			WorkflowID: j.event.Header.WorkflowID,
			UserID:     j.event.Header.UserID,
			TenantID:   j.event.Header.TenantID,
			EventID:    uuid.New().String(),
			Timestamp:  time.Now(),
		},
		SourceKey: j.event.SourceKey,
		Variants:  refs,
		Analysis: AnalysisSummary{
			Palette:              result.Palette,
			AvgLuminance:         result.Analysis.AvgLuminance,
			IsPredominantlyDark:  result.Analysis.IsPredominantlyDark,
			IsPredominantlyLight: result.Analysis.IsPredominantlyLight,
		},
	}

	eventJSON, marshalErr := json.Marshal(created)
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal LogoVariantsCreatedEvent: %w", marshalErr)
	}

	if _, pubErr := j.publisher.Publish(ctx, j.subject, eventJSON); pubErr != nil {
		return fmt.Errorf("failed to publish LogoVariantsCreatedEvent: %w", pubErr)
	}

	j.log.Info("Job [%s]: Published variants event on '%s'", j.event.Header.WorkflowID, j.subject)

	return nil
}

func (j *job) workflowID() string {
	if j.event == nil {
		return "unknown"
	}

	return j.event.Header.WorkflowID
}

func (j *job) ack() {
	if err := j.msg.Ack(); err != nil {
		j.log.Error("Job [%s]: Failed to acknowledge message: %v", j.workflowID(), err)
	} else {
		j.log.Success("Job [%s]: Processing complete. Acknowledged.", j.workflowID())
	}
}

func (j *job) nak(reason error) {
	j.log.Error("NAK'ing message for job [%s]: %v", j.workflowID(), reason)

	if err := j.msg.Nak(); err != nil {
		j.log.Error("Failed to NAK message: %v", err)
	}
}

func (j *job) term(reason error) {
	j.log.Error("Terminating message for job [%s]: %v", j.workflowID(), reason)

	if err := j.msg.Term(); err != nil {
		j.log.Error("Failed to TERM message: %v", err)
	}
}
