package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/events"
)

// ErrInvalidEvent is returned when a message cannot be turned into a job.
var ErrInvalidEvent = errors.New("invalid logo event")

// LogoSubmittedEvent announces a source logo stored in the logo object store.
type LogoSubmittedEvent struct {
	Header    events.EventHeader `json:"header"`
	SourceKey string             `json:"source_key"`
}

// VariantRef points at one uploaded variant.
type VariantRef struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	ObjectKey string `json:"object_key"`
}

// AnalysisSummary is the color analysis published with the variants.
type AnalysisSummary struct {
	Palette              []string `json:"palette"`
	AvgLuminance         float64  `json:"avg_luminance"`
	IsPredominantlyDark  bool     `json:"is_predominantly_dark"`
	IsPredominantlyLight bool     `json:"is_predominantly_light"`
}

// LogoVariantsCreatedEvent is published once all variants of a logo are stored.
type LogoVariantsCreatedEvent struct {
	Header    events.EventHeader `json:"header"`
	SourceKey string             `json:"source_key"`
	Variants  []VariantRef       `json:"variants"`
	Analysis  AnalysisSummary    `json:"analysis"`
}

// unmarshalEvent decodes and validates a LogoSubmittedEvent.
func unmarshalEvent(data []byte) (*LogoSubmittedEvent, error) {
	var event LogoSubmittedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal LogoSubmittedEvent: %w", ErrInvalidEvent, err)
	}

	if strings.TrimSpace(event.SourceKey) == "" {
		return nil, fmt.Errorf("%w: source key is empty", ErrInvalidEvent)
	}

	if event.Header.WorkflowID == "" {
		return nil, fmt.Errorf("%w: workflow ID is empty", ErrInvalidEvent)
	}

	return &event, nil
}

// variantObjectName lays variants out per tenant and workflow.
func variantObjectName(header events.EventHeader, variantID string) string {
	return fmt.Sprintf("%s/%s/%s.png", header.TenantID, header.WorkflowID, variantID)
}
