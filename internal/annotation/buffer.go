package annotation

import (
	"context"
	"sync"

	"propgen/internal/model"
	"propgen/internal/repository"
)

// Buffer accumulates user annotations between a completed generation and the
// next regenerate call. It is owned by a single session; it is not shared
// across sessions.
type Buffer struct {
	mu      sync.Mutex
	entries []model.AnnotationEntry
}

// NewBuffer returns an empty annotation buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Add appends one (content reference, comment) pair in insertion order.
func (b *Buffer) Add(contentRef, comment string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, model.AnnotationEntry{
		ContentRef: contentRef,
		Comment:    comment,
	})
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Entries returns a copy of the current buffer contents.
func (b *Buffer) Entries() []model.AnnotationEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.AnnotationEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// FlushAndClear persists the buffer's current contents as one replacement
// write and then drops exactly the flushed entries.
//
// The persistence call runs outside the lock against a snapshot, so a
// concurrent Add either made it into the snapshot or stays buffered for the
// next flush: never lost, never duplicated. On a failed write nothing is
// dropped.
func (b *Buffer) FlushAndClear(ctx context.Context, jobID string, repo repository.AnnotationRepository) error {
	b.mu.Lock()
	snapshot := make([]model.AnnotationEntry, len(b.entries))
	copy(snapshot, b.entries)
	b.mu.Unlock()

	if err := repo.ReplaceAll(ctx, jobID, snapshot); err != nil {
		return err
	}

	b.mu.Lock()
	b.entries = append([]model.AnnotationEntry(nil), b.entries[len(snapshot):]...)
	b.mu.Unlock()
	return nil
}
