package model

import "time"

// JobState is the lifecycle state of a proposal job.
type JobState string

const (
	StateIdle         JobState = "idle"
	StateUploading    JobState = "uploading"
	StatePersisting   JobState = "persisting"
	StateGenerating   JobState = "generating"
	StateGenerated    JobState = "generated"
	StateRegenerating JobState = "regenerating"
)

// transitions is the allowed state graph. Idle is both the initial state and
// the landing state after a fatal first-generation failure. Generated is the
// entry point for any number of regeneration cycles.
var transitions = map[JobState][]JobState{
	StateIdle:         {StateUploading},
	StateUploading:    {StatePersisting, StateIdle},
	StatePersisting:   {StateGenerating, StateIdle},
	StateGenerating:   {StateGenerated, StateIdle},
	StateGenerated:    {StateRegenerating},
	StateRegenerating: {StateGenerated},
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s JobState) CanTransition(next JobState) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// StageLabel is the human-readable, indeterminate stage indicator shown to
// the UI. It deliberately carries no percentage.
func (s JobState) StageLabel() string {
	switch s {
	case StateIdle:
		return "Waiting for submission"
	case StateUploading:
		return "Uploading documents"
	case StatePersisting:
		return "Saving job record"
	case StateGenerating:
		return "Generating proposal"
	case StateGenerated:
		return "Proposal ready"
	case StateRegenerating:
		return "Regenerating proposal"
	default:
		return string(s)
	}
}

// Language selects the proposal language variant.
type Language string

const (
	LanguageArabic  Language = "arabic"
	LanguageEnglish Language = "english"
)

// Valid reports whether l is a supported language variant.
func (l Language) Valid() bool {
	return l == LanguageArabic || l == LanguageEnglish
}

// Artifacts holds the latest generation output for a job. URLs come from the
// remote engine; Content is the inline generated markdown, when present.
type Artifacts struct {
	WordURL string `json:"word_url,omitempty"`
	PDFURL  string `json:"pdf_url,omitempty"`
	Content string `json:"content,omitempty"`
}

// Job is the in-memory, session-authoritative representation of a proposal
// job. It is mirrored into persistent storage as a JobRecord, but the copy
// held by the running session is the source of truth for lifecycle state.
type Job struct {
	ID         string         `json:"id"`
	State      JobState       `json:"state"`
	StageLabel string         `json:"stage_label"`
	Config     string         `json:"config"`
	DocConfig  map[string]any `json:"doc_config,omitempty"`
	Language   Language       `json:"language"`
	Artifacts  Artifacts      `json:"artifacts"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// JobRecord is the persisted mirror of a job, keyed uniquely by job
// identifier. It keeps only the most recent representative locator per file
// class, not the full upload list.
type JobRecord struct {
	JobID         string    `json:"job_id"`
	RFPURL        string    `json:"rfp_url"`
	SupportingURL string    `json:"supporting_url"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AnnotationEntry is one user note on a fragment of generated content.
type AnnotationEntry struct {
	ContentRef string `json:"content_ref"`
	Comment    string `json:"comment"`
}
