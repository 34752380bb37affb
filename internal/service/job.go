package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"propgen/internal/annotation"
	"propgen/internal/engine"
	"propgen/internal/model"
	"propgen/internal/repository"
	"propgen/internal/storage"
	"propgen/internal/upload"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobNotReady = errors.New("job has no generated proposal yet")
)

// persistTimeout bounds the job record upsert; it gates UI feedback and must
// never run unbounded.
const persistTimeout = 10 * time.Second

var timeNow = time.Now

// SubmitInput is everything the user provides when initiating a job.
type SubmitInput struct {
	Files     []upload.File
	Config    string
	DocConfig map[string]any
	Language  model.Language
}

// JobService drives the proposal job lifecycle:
// Idle → Uploading → Persisting → Generating → Generated, then any number of
// Regenerating → Generated cycles.
type JobService interface {
	// Submit runs the full first-generation pipeline and returns the job in
	// its final state. A fatal failure returns the job to Idle.
	Submit(ctx context.Context, in SubmitInput) (*model.Job, error)

	// Regenerate flushes the annotation buffer to persistent storage and
	// re-invokes the engine. A failure is non-fatal: the previously
	// generated artifacts remain valid and displayed.
	Regenerate(ctx context.Context, jobID string) (*model.Job, error)

	// Annotate buffers one (content reference, comment) pair for the next
	// regeneration.
	Annotate(jobID, contentRef, comment string) error

	// Get returns a snapshot of the job's current state.
	Get(jobID string) (*model.Job, error)
}

// jobEntry is the session-side bookkeeping for one job. Its mutex serializes
// lifecycle mutations; it is never held across network calls. The epoch
// counter marks which regeneration request is current, so a completion
// observed under a stale epoch is discarded.
type jobEntry struct {
	mu     sync.Mutex
	job    *model.Job
	buffer *annotation.Buffer
	epoch  uint64
}

type jobService struct {
	store   storage.Storage
	uploads *upload.Coordinator
	records repository.JobRecordRepository
	notes   repository.AnnotationRepository
	gen     engine.Generator

	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

// NewJobService constructs the orchestrator.
func NewJobService(
	store storage.Storage,
	uploads *upload.Coordinator,
	records repository.JobRecordRepository,
	notes repository.AnnotationRepository,
	gen engine.Generator,
) JobService {
	return &jobService{
		store:   store,
		uploads: uploads,
		records: records,
		notes:   notes,
		gen:     gen,
		jobs:    make(map[string]*jobEntry),
	}
}

func (s *jobService) Submit(ctx context.Context, in SubmitInput) (*model.Job, error) {
	if in.Config == "" {
		return nil, &model.ValidationError{Reason: "configuration must not be empty"}
	}
	if in.Language == "" {
		in.Language = model.LanguageEnglish
	}
	if !in.Language.Valid() {
		return nil, &model.ValidationError{Reason: fmt.Sprintf("unsupported language %q", in.Language)}
	}
	hasRFP := false
	for _, f := range in.Files {
		if f.Class == upload.ClassRFP {
			hasRFP = true
			break
		}
	}
	if !hasRFP {
		return nil, &model.ValidationError{Reason: "at least one rfp file is required"}
	}

	// The job identifier is generated before any network call; it correlates
	// the upload batch, the persisted record, and every generation call.
	now := timeNow().UTC()
	entry := &jobEntry{
		job: &model.Job{
			ID:        uuid.NewString(),
			State:     model.StateIdle,
			Config:    in.Config,
			DocConfig: in.DocConfig,
			Language:  in.Language,
			CreatedAt: now,
			UpdatedAt: now,
		},
		buffer: annotation.NewBuffer(),
	}
	s.mu.Lock()
	s.jobs[entry.job.ID] = entry
	s.mu.Unlock()

	s.advance(entry, model.StateUploading)

	// Connectivity probe: a negative result is a warning, not a blocker.
	if err := s.store.Ping(ctx); err != nil {
		logJSON(map[string]any{
			"level": "warn", "event": "storage_probe_failed",
			"job_id": entry.job.ID, "error": err.Error(),
		})
	}

	batch, err := s.uploads.Run(ctx, entry.job.ID, in.Files)
	if err != nil {
		s.advance(entry, model.StateIdle)
		return nil, err
	}
	for _, f := range batch.Failures() {
		logJSON(map[string]any{
			"level": "error", "event": "upload_failed",
			"job_id": entry.job.ID, "file": f.Name, "class": string(f.Class),
			"error": f.Err.Error(),
		})
	}

	rfpURL := batch.Locator(upload.ClassRFP)
	if rfpURL == "" {
		// The job cannot proceed without at least one RFP document.
		s.advance(entry, model.StateIdle)
		if verr := rfpValidationFailure(batch); verr != nil {
			return nil, verr
		}
		return nil, &model.StorageError{Err: errors.New("all rfp uploads failed")}
	}

	s.advance(entry, model.StatePersisting)
	if err := s.persistRecord(ctx, entry.job.ID, rfpURL, batch.Locator(upload.ClassSupporting)); err != nil {
		s.advance(entry, model.StateIdle)
		return nil, err
	}

	s.advance(entry, model.StateGenerating)
	res, err := s.gen.Generate(ctx, entry.job.ID, engine.GenerateRequest{
		Config:    in.Config,
		DocConfig: in.DocConfig,
		Language:  in.Language,
		Timestamp: timeNow().UTC(),
	})
	if err != nil {
		// No artifact ever existed, so a first-generation failure is fatal.
		s.advance(entry, model.StateIdle)
		return nil, err
	}

	entry.mu.Lock()
	entry.job.Artifacts = model.Artifacts{
		WordURL: res.WordLink,
		PDFURL:  res.PDFLink,
		Content: res.ProposalContent,
	}
	s.transition(entry, model.StateGenerated)
	out := snapshot(entry.job)
	entry.mu.Unlock()

	return out, nil
}

// rfpValidationFailure returns the first rejection reason when every RFP file
// in the batch was refused before reaching the network. The submission itself
// was malformed, so the failure surfaces as validation rather than storage.
func rfpValidationFailure(batch *upload.BatchResult) *model.ValidationError {
	var first *model.ValidationError
	for _, o := range batch.Outcomes {
		if o.Class != upload.ClassRFP {
			continue
		}
		var verr *model.ValidationError
		if !errors.As(o.Err, &verr) {
			return nil
		}
		if first == nil {
			first = verr
		}
	}
	return first
}

func (s *jobService) Regenerate(ctx context.Context, jobID string) (*model.Job, error) {
	entry, err := s.lookup(jobID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if entry.job.State != model.StateGenerated {
		// Covers jobs that never generated and an in-flight regeneration:
		// concurrent regenerate requests for one job are rejected, not queued.
		entry.mu.Unlock()
		return nil, ErrJobNotReady
	}
	s.transition(entry, model.StateRegenerating)
	entry.epoch++
	myEpoch := entry.epoch
	req := engine.GenerateRequest{
		Config:    entry.job.Config,
		DocConfig: entry.job.DocConfig,
		Language:  entry.job.Language,
		Timestamp: timeNow().UTC(),
	}
	entry.mu.Unlock()

	// Annotations are persisted out-of-band before the engine call; the
	// payload itself never carries them. The buffer guards its own state, so
	// annotations submitted while this flush runs simply wait for the next
	// cycle. The flush is a database round-trip and gets the same bounded
	// deadline as the record upsert.
	fctx, cancel := context.WithTimeout(ctx, persistTimeout)
	flushErr := entry.buffer.FlushAndClear(fctx, jobID, s.notes)
	cancel()
	if flushErr != nil {
		if errors.Is(flushErr, context.DeadlineExceeded) {
			flushErr = &model.TimeoutError{Op: "annotation flush", Err: flushErr}
		}
		return s.finishRegenerate(entry, myEpoch, nil, &model.PersistenceError{Err: flushErr})
	}

	res, err := s.gen.Regenerate(ctx, jobID, req)
	return s.finishRegenerate(entry, myEpoch, res, err)
}

// finishRegenerate applies a regeneration outcome. Any failure is non-fatal:
// the job returns to Generated and the prior artifacts remain valid and
// displayed. A response whose epoch is stale is discarded outright.
func (s *jobService) finishRegenerate(entry *jobEntry, myEpoch uint64, res *engine.GenerateResponse, err error) (*model.Job, error) {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.epoch != myEpoch {
		// A newer request superseded this one; its response owns the state.
		return snapshot(entry.job), nil
	}

	if err != nil {
		s.transition(entry, model.StateGenerated)
		return snapshot(entry.job), err
	}

	artifacts := entry.job.Artifacts
	if res.WordLink != "" {
		artifacts.WordURL = res.WordLink
	}
	if res.PDFLink != "" {
		artifacts.PDFURL = res.PDFLink
	}
	if res.UpdatedMarkdown != "" {
		artifacts.Content = res.UpdatedMarkdown
	}
	entry.job.Artifacts = artifacts
	s.transition(entry, model.StateGenerated)

	return snapshot(entry.job), nil
}

func (s *jobService) Annotate(jobID, contentRef, comment string) error {
	if contentRef == "" || comment == "" {
		return &model.ValidationError{Reason: "content reference and comment are required"}
	}

	entry, err := s.lookup(jobID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	state := entry.job.State
	entry.mu.Unlock()
	if state != model.StateGenerated && state != model.StateRegenerating {
		return ErrJobNotReady
	}

	entry.buffer.Add(contentRef, comment)
	return nil
}

func (s *jobService) Get(jobID string) (*model.Job, error) {
	entry, err := s.lookup(jobID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return snapshot(entry.job), nil
}

func (s *jobService) lookup(jobID string) (*jobEntry, error) {
	s.mu.RLock()
	entry, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}
	return entry, nil
}

func (s *jobService) persistRecord(ctx context.Context, jobID, rfpURL, supportingURL string) error {
	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	err := s.records.Upsert(pctx, &model.JobRecord{
		JobID:         jobID,
		RFPURL:        rfpURL,
		SupportingURL: supportingURL,
		UpdatedAt:     timeNow().UTC(),
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.PersistenceError{Err: &model.TimeoutError{Op: "record upsert", Err: err}}
	}
	return &model.PersistenceError{Err: err}
}

// advance takes the entry lock for exactly one transition, so the lock is
// never held across the network calls between pipeline stages and readers
// observe each stage as it happens.
func (s *jobService) advance(entry *jobEntry, next model.JobState) {
	entry.mu.Lock()
	s.transition(entry, next)
	entry.mu.Unlock()
}

// transition moves the job to next, panicking on an illegal step since that
// always marks a programming error in the pipeline, never user input.
func (s *jobService) transition(entry *jobEntry, next model.JobState) {
	if !entry.job.State.CanTransition(next) {
		panic(fmt.Sprintf("illegal job transition %s -> %s", entry.job.State, next))
	}
	entry.job.State = next
	entry.job.StageLabel = next.StageLabel()
	entry.job.UpdatedAt = timeNow().UTC()
	logJSON(map[string]any{
		"level": "info", "event": "job_state",
		"job_id": entry.job.ID, "state": string(next), "stage": entry.job.StageLabel,
	})
}

func snapshot(j *model.Job) *model.Job {
	out := *j
	return &out
}

func logJSON(data map[string]any) {
	data["ts"] = timeNow().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal log entry: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
