package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"propgen/internal/model"
	"propgen/internal/service"
	"propgen/internal/upload"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parsing and response shaping only, no business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, jobSvc service.JobService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/jobs", SubmitJob(jobSvc))
	app.Get("/jobs/:id", GetJob(jobSvc))
	app.Post("/jobs/:id/annotations", AnnotateJob(jobSvc))
	app.Post("/jobs/:id/regenerate", RegenerateJob(jobSvc))
}

// HealthCheck verifies DB connectivity with a short timeout.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// jobResponse augments the job with decorated artifact download links.
type jobResponse struct {
	*model.Job
	Downloads []model.DownloadLink `json:"downloads,omitempty"`
}

func toResponse(job *model.Job) jobResponse {
	return jobResponse{Job: job, Downloads: job.DownloadLinks(time.Now())}
}

// SubmitJob accepts a multipart submission and runs the full pipeline.
//
// Form fields: "rfp" (file, at least one), "supporting" (file, optional,
// repeatable), "config" (free text), "language" ("arabic"|"english"),
// "doc_config" (JSON object of primitive values).
func SubmitJob(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "MULTIPART_REQUIRED", "multipart form is required")
		}

		var docConfig map[string]any
		if raw := c.FormValue("doc_config"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &docConfig); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DOC_CONFIG", "doc_config must be a JSON object")
			}
		}

		files, closers, err := collectFiles(form)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer func() {
			for _, cl := range closers {
				cl.Close()
			}
		}()

		job, err := svc.Submit(c.UserContext(), service.SubmitInput{
			Files:     files,
			Config:    c.FormValue("config"),
			DocConfig: docConfig,
			Language:  model.Language(c.FormValue("language")),
		})
		if err != nil {
			return writePipelineError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(job))
	}
}

func collectFiles(form *multipart.Form) ([]upload.File, []multipart.File, error) {
	var files []upload.File
	var closers []multipart.File

	add := func(headers []*multipart.FileHeader, class upload.Class) error {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return err
			}
			closers = append(closers, f)
			files = append(files, upload.File{
				Name:        fh.Filename,
				Class:       class,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Reader:      f,
			})
		}
		return nil
	}

	if err := add(form.File["rfp"], upload.ClassRFP); err != nil {
		return nil, closers, err
	}
	if err := add(form.File["supporting"], upload.ClassSupporting); err != nil {
		return nil, closers, err
	}
	return files, closers, nil
}

// GetJob returns the current job snapshot with download links.
func GetJob(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := svc.Get(c.Params("id"))
		if err != nil {
			return writePipelineError(c, err)
		}
		return c.JSON(toResponse(job))
	}
}

type annotationRequest struct {
	ContentRef string `json:"content_ref"`
	Comment    string `json:"comment"`
}

// AnnotateJob buffers one annotation for the next regeneration.
func AnnotateJob(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req annotationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := svc.Annotate(c.Params("id"), req.ContentRef, req.Comment); err != nil {
			return writePipelineError(c, err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	}
}

// RegenerateJob flushes annotations and re-invokes the engine. A failed
// regeneration reports the error while the prior artifacts stay intact.
func RegenerateJob(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := svc.Regenerate(c.UserContext(), c.Params("id"))
		if err != nil {
			return writePipelineError(c, err)
		}
		return c.JSON(toResponse(job))
	}
}
