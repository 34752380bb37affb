package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"

	"propgen/internal/model"
	"propgen/internal/storage"
)

// MaxFileSize is the hard per-file ceiling enforced before any network call.
const MaxFileSize = 50 << 20 // 50 MiB

// Class is the destination classification of an uploaded file. A job cannot
// proceed without at least one successful "rfp" upload; "supporting" files
// may fail entirely without failing the job.
type Class string

const (
	ClassRFP        Class = "rfp"
	ClassSupporting Class = "supporting"
)

// File is one upload task: a source stream plus its destination class.
type File struct {
	Name        string
	Class       Class
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Outcome is the settled result of one upload task: either a locator or a
// captured error, never both.
type Outcome struct {
	Name    string `json:"name"`
	Class   Class  `json:"class"`
	Key     string `json:"key,omitempty"`
	Locator string `json:"locator,omitempty"`
	Err     error  `json:"-"`
}

// BatchResult collects every outcome of a fan-out, in input order.
type BatchResult struct {
	Outcomes []Outcome
}

// Locator returns the representative locator for a class: the first
// successfully uploaded file in list order. Failed entries are skipped, so
// if the first entry failed but a later one succeeded, the later one wins.
func (r *BatchResult) Locator(class Class) string {
	for _, o := range r.Outcomes {
		if o.Class == class && o.Err == nil {
			return o.Locator
		}
	}
	return ""
}

// Failures returns the outcomes whose upload failed.
func (r *BatchResult) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

var timeNow = time.Now

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9.-] with an
// underscore so the derived storage path is always valid.
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// Coordinator fans a batch of files out to object storage with a bounded
// number of concurrent uploads. One file's failure never cancels the others:
// the join point waits for every task to settle.
type Coordinator struct {
	store   storage.Storage
	limit   int
	timeout time.Duration
}

// New constructs a Coordinator. Concurrency below 1 falls back to 6.
func New(store storage.Storage, concurrency, timeoutSec int) *Coordinator {
	if concurrency < 1 {
		concurrency = 6
	}
	if timeoutSec < 1 {
		timeoutSec = 60
	}
	return &Coordinator{
		store:   store,
		limit:   concurrency,
		timeout: time.Duration(timeoutSec) * time.Second,
	}
}

// Run validates and uploads the batch for the given job identifier.
//
// Validation (size ceiling, non-empty file) happens before any network call
// and is isolated per file, like every other upload failure: a violating
// file settles with a ValidationError in its Outcome and never reaches the
// store, while the rest of the batch uploads normally. The valid files are
// uploaded concurrently and each result lands in its Outcome slot; Run
// itself only errors on a missing job identifier.
func (c *Coordinator) Run(ctx context.Context, jobID string, files []File) (*BatchResult, error) {
	if jobID == "" {
		return nil, &model.ValidationError{Reason: "job id is required"}
	}

	batchTS := timeNow().UnixMilli()
	result := &BatchResult{Outcomes: make([]Outcome, len(files))}

	g := new(errgroup.Group)
	g.SetLimit(c.limit)

	for i, f := range files {
		result.Outcomes[i] = Outcome{Name: f.Name, Class: f.Class}

		if err := validate(f); err != nil {
			result.Outcomes[i].Err = err
			continue
		}

		key := fmt.Sprintf("%s/%d_%d_%s", jobID, batchTS, i, SanitizeFilename(f.Name))
		result.Outcomes[i].Key = key

		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			_, err := c.store.Put(callCtx, key, f.Reader, storage.PutObjectOptions{
				Size:        f.Size,
				ContentType: f.ContentType,
				Metadata:    map[string]string{"original-filename": f.Name},
			})
			if err != nil {
				result.Outcomes[i].Err = classifyUploadError(key, err)
				// Swallow the error so the group never short-circuits;
				// the outcome slot carries it instead.
				return nil
			}
			result.Outcomes[i].Locator = c.store.PublicURL(key)
			return nil
		})
	}

	// Wait for every task to settle. Goroutines always return nil, so this
	// join never aborts on first failure.
	_ = g.Wait()

	return result, nil
}

func validate(f File) error {
	if f.Size <= 0 {
		return &model.ValidationError{Reason: fmt.Sprintf("file %q is empty", f.Name)}
	}
	if f.Size > MaxFileSize {
		return &model.ValidationError{Reason: fmt.Sprintf("file %q exceeds the 50 MiB limit", f.Name)}
	}
	return nil
}

func classifyUploadError(key string, err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return &model.StorageError{Path: key, Err: &model.TimeoutError{Op: "upload", Err: err}}
	}
	return &model.StorageError{Path: key, Err: err}
}
