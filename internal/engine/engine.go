package engine

import (
	"context"
	"time"

	"propgen/internal/model"
)

// GenerateRequest is the payload for both generation and regeneration calls.
// Annotations are persisted out-of-band before a regenerate call and are not
// transmitted in this payload; the engine reads them by job identifier.
type GenerateRequest struct {
	Config    string         `json:"config"`
	DocConfig map[string]any `json:"docConfig"`
	Language  model.Language `json:"language"`
	Timestamp time.Time      `json:"timestamp"`
}

// GenerateResponse carries the artifact locators and/or inline content
// returned by the engine. Generation responses use ProposalContent;
// regeneration responses use UpdatedMarkdown.
type GenerateResponse struct {
	WordLink        string `json:"wordLink,omitempty"`
	PDFLink         string `json:"pdfLink,omitempty"`
	ProposalContent string `json:"proposal_content,omitempty"`
	UpdatedMarkdown string `json:"updated_markdown,omitempty"`
}

// Generator is the remote proposal generation engine.
type Generator interface {
	// Generate runs the first generation for a job.
	Generate(ctx context.Context, jobID string, req GenerateRequest) (*GenerateResponse, error)
	// Regenerate re-invokes the engine for an existing job, after the
	// accumulated annotations have been persisted.
	Regenerate(ctx context.Context, jobID string, req GenerateRequest) (*GenerateResponse, error)
}
