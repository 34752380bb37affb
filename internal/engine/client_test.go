package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"propgen/internal/config"
	"propgen/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.EngineConfig{BaseURL: srv.URL, TimeoutSec: 5})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(config.EngineConfig{})
	assert.Error(t, err)

	c, err := NewClient(config.EngineConfig{BaseURL: "http://engine.test"})
	assert.NoError(t, err)
	assert.NotNil(t, c)
}

func TestClientGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any

		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			json.NewDecoder(r.Body).Decode(&gotBody)
			json.NewEncoder(w).Encode(map[string]string{
				"wordLink":         "https://store.test/out.docx",
				"pdfLink":          "https://store.test/out.pdf",
				"proposal_content": "# Proposal",
			})
		})

		res, err := c.Generate(ctx, "job-1", GenerateRequest{
			Config:    "formal tone",
			DocConfig: map[string]any{"font": "Arial", "toc": true},
			Language:  model.LanguageEnglish,
			Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Equal(t, "/jobs/job-1/generate", gotPath)
		assert.Equal(t, "formal tone", gotBody["config"])
		assert.Equal(t, "english", gotBody["language"])
		// Timestamp must serialize as ISO8601.
		assert.Equal(t, "2026-08-01T12:00:00Z", gotBody["timestamp"])
		assert.Equal(t, "https://store.test/out.docx", res.WordLink)
		assert.Equal(t, "https://store.test/out.pdf", res.PDFLink)
		assert.Equal(t, "# Proposal", res.ProposalContent)
	})

	t.Run("non-2xx is a GenerationError", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		res, err := c.Generate(ctx, "job-1", GenerateRequest{})

		assert.Nil(t, res)
		var gerr *model.GenerationError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, http.StatusBadGateway, gerr.Status)
	})

	t.Run("malformed response body", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})

		res, err := c.Generate(ctx, "job-1", GenerateRequest{})

		assert.Nil(t, res)
		var gerr *model.GenerationError
		assert.ErrorAs(t, err, &gerr)
	})

	t.Run("timeout is a TimeoutError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		t.Cleanup(srv.Close)

		c, err := NewClient(config.EngineConfig{BaseURL: srv.URL, TimeoutSec: 5})
		require.NoError(t, err)

		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		res, err := c.Generate(tctx, "job-1", GenerateRequest{})

		assert.Nil(t, res)
		var terr *model.TimeoutError
		assert.ErrorAs(t, err, &terr)
	})
}

func TestClientRegenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var gotPath string
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			json.NewEncoder(w).Encode(map[string]string{
				"wordLink":         "https://store.test/v2.docx",
				"updated_markdown": "# Proposal v2",
			})
		})

		res, err := c.Regenerate(ctx, "job-9", GenerateRequest{Language: model.LanguageArabic})

		require.NoError(t, err)
		assert.Equal(t, "/jobs/job-9/regenerate", gotPath)
		assert.Equal(t, "https://store.test/v2.docx", res.WordLink)
		assert.Equal(t, "# Proposal v2", res.UpdatedMarkdown)
	})

	t.Run("engine failure", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		res, err := c.Regenerate(ctx, "job-9", GenerateRequest{})

		assert.Nil(t, res)
		var gerr *model.GenerationError
		assert.ErrorAs(t, err, &gerr)
	})
}
