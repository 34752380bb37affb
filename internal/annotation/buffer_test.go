package annotation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"propgen/internal/model"
	repoMocks "propgen/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBufferAddOrder(t *testing.T) {
	b := NewBuffer()
	b.Add("Section 2 paragraph 1", "clarify scope")
	b.Add("Budget table", "add currency")

	entries := b.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, model.AnnotationEntry{ContentRef: "Section 2 paragraph 1", Comment: "clarify scope"}, entries[0])
	assert.Equal(t, model.AnnotationEntry{ContentRef: "Budget table", Comment: "add currency"}, entries[1])
}

func TestBufferFlushAndClear(t *testing.T) {
	ctx := context.Background()

	t.Run("persists snapshot and empties buffer", func(t *testing.T) {
		b := NewBuffer()
		b.Add("Section 2 paragraph 1", "clarify scope")
		b.Add("Budget table", "add currency")

		mRepo := new(repoMocks.MockAnnotationRepository)
		mRepo.On("ReplaceAll", ctx, "job-1", []model.AnnotationEntry{
			{ContentRef: "Section 2 paragraph 1", Comment: "clarify scope"},
			{ContentRef: "Budget table", Comment: "add currency"},
		}).Return(nil)

		err := b.FlushAndClear(ctx, "job-1", mRepo)

		assert.NoError(t, err)
		assert.Zero(t, b.Len())
		mRepo.AssertExpectations(t)
	})

	t.Run("failed write keeps the buffer intact", func(t *testing.T) {
		b := NewBuffer()
		b.Add("x", "y")

		mRepo := new(repoMocks.MockAnnotationRepository)
		mRepo.On("ReplaceAll", ctx, "job-1", mock.Anything).Return(errors.New("db down"))

		err := b.FlushAndClear(ctx, "job-1", mRepo)

		assert.Error(t, err)
		assert.Equal(t, 1, b.Len())
	})

	t.Run("add during flush lands in this flush or the next", func(t *testing.T) {
		b := NewBuffer()
		b.Add("early", "note")

		flushStarted := make(chan struct{})
		release := make(chan struct{})

		var persisted []model.AnnotationEntry
		mRepo := new(repoMocks.MockAnnotationRepository)
		mRepo.On("ReplaceAll", ctx, "job-1", mock.Anything).
			Run(func(args mock.Arguments) {
				persisted = args.Get(2).([]model.AnnotationEntry)
				close(flushStarted)
				<-release
			}).Return(nil)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.FlushAndClear(ctx, "job-1", mRepo))
		}()

		<-flushStarted
		b.Add("late", "added mid-flush")
		close(release)
		wg.Wait()

		// The snapshot held only the pre-flush entry; the late one survived.
		require.Len(t, persisted, 1)
		assert.Equal(t, "early", persisted[0].ContentRef)

		remaining := b.Entries()
		require.Len(t, remaining, 1)
		assert.Equal(t, "late", remaining[0].ContentRef)
	})
}
