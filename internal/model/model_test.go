package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobStateCanTransition(t *testing.T) {
	tests := []struct {
		from JobState
		to   JobState
		ok   bool
	}{
		{StateIdle, StateUploading, true},
		{StateUploading, StatePersisting, true},
		{StateUploading, StateIdle, true},
		{StatePersisting, StateGenerating, true},
		{StatePersisting, StateIdle, true},
		{StateGenerating, StateGenerated, true},
		{StateGenerating, StateIdle, true},
		{StateGenerated, StateRegenerating, true},
		{StateRegenerating, StateGenerated, true},
		// illegal jumps
		{StateIdle, StateGenerating, false},
		{StateGenerated, StateIdle, false},
		{StateRegenerating, StateIdle, false},
		{StateGenerated, StateUploading, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestJobStateStageLabel(t *testing.T) {
	assert.Equal(t, "Proposal ready", StateGenerated.StageLabel())
	assert.Equal(t, "Uploading documents", StateUploading.StageLabel())
	// Unknown states fall back to the raw value rather than inventing a label.
	assert.Equal(t, "bogus", JobState("bogus").StageLabel())
}

func TestLanguageValid(t *testing.T) {
	assert.True(t, LanguageArabic.Valid())
	assert.True(t, LanguageEnglish.Valid())
	assert.False(t, Language("french").Valid())
	assert.False(t, Language("").Valid())
}

func TestJobDownloadLinks(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	t.Run("both artifacts", func(t *testing.T) {
		j := &Job{
			ID: "0c6a1f2e-aaaa-bbbb-cccc-000000000000",
			Artifacts: Artifacts{
				WordURL: "https://store.example/out.docx",
				PDFURL:  "https://store.example/out.pdf?sig=abc",
			},
		}
		links := j.DownloadLinks(now)
		assert.Len(t, links, 2)
		assert.Equal(t, "https://store.example/out.docx?v=1700000000000", links[0].URL)
		assert.Equal(t, "proposal-0c6a1f2e.docx", links[0].Filename)
		// Existing query strings get & instead of a second ?.
		assert.Equal(t, "https://store.example/out.pdf?sig=abc&v=1700000000000", links[1].URL)
		assert.Equal(t, "proposal-0c6a1f2e.pdf", links[1].Filename)
	})

	t.Run("no artifacts yet", func(t *testing.T) {
		j := &Job{ID: "abc"}
		assert.Empty(t, j.DownloadLinks(now))
	})
}
