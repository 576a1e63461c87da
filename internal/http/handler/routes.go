package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"docsummarizer/internal/service"
)

const serviceName = "doc-summarizer-api"

// RegisterRoutes attaches the health probes and the /api routes to app.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/upload", UploadDocument(docSvc))
	api.Get("/documents", ListDocuments(docSvc))
	api.Get("/documents/:id", GetDocument(docSvc))
	api.Get("/document/:id/summary", ResummarizeDocument(docSvc))
	api.Delete("/document/:id", DeleteDocument(docSvc))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Pings the database.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy", "service": serviceName})
	}
}

// LivenessProbe answers 200 as long as the process serves requests.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListDocuments godoc
// @Summary List documents
// @Description Newest first. Without limit every document is returned.
// @Tags documents
// @Produce json
// @Param limit query int false "page size"
// @Param offset query int false "rows to skip"
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return failed(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument godoc
// @Summary Upload and summarize a document
// @Description Stores the file, extracts its text and returns a short bullet summary.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "txt, md, html, htm or pdf; other files are read as text"
// @Success 201 {object} model.UploadResult
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/upload [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		res, err := docSvc.Upload(c.UserContext(), f, fh.Filename, fh.Header.Get("Content-Type"))
		if err != nil {
			return failed(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GetDocument godoc
// @Summary Get document metadata
// @Tags documents
// @Produce json
// @Param id path int true "document id"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return failed(c, err)
		}
		return c.JSON(doc)
	}
}

// ResummarizeDocument godoc
// @Summary Summarize a stored document again
// @Description Re-extracts the stored bytes; the result may differ between calls.
// @Tags documents
// @Produce json
// @Param id path int true "document id"
// @Success 200 {object} model.SummaryResult
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/document/{id}/summary [get]
func ResummarizeDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := docSvc.Resummarize(c.UserContext(), id)
		if err != nil {
			return failed(c, err)
		}
		return c.JSON(res)
	}
}

// DeleteDocument godoc
// @Summary Delete a document and its stored bytes
// @Description Unknown ids succeed too.
// @Tags documents
// @Produce json
// @Param id path int true "document id"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/document/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			return failed(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// failed logs the underlying error, which never reaches the client, and writes the mapped response.
func failed(c *fiber.Ctx, err error) error {
	logrus.WithFields(logrus.Fields{
		"request_id": requestIDFromCtx(c),
		"path":       c.Path(),
		"error":      err.Error(),
	}).Error("request_failed")
	return writeServiceError(c, err)
}
