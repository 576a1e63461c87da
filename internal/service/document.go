package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docsummarizer/internal/database"
	"docsummarizer/internal/extract"
	"docsummarizer/internal/model"
	"docsummarizer/internal/repository"
	"docsummarizer/internal/storage"
	"docsummarizer/internal/summarizer"
)

var (
	ErrInvalidID   = errors.New("invalid document id")
	ErrNotFound    = errors.New("document not found")
	ErrReaderNil   = errors.New("reader is nil")
	ErrEmptyInput  = errors.New("empty upload")
	ErrBlobMissing = errors.New("document content missing from storage")
)

const (
	// MinTextChars is the normalized length below which the model is not called.
	MinTextChars = 50
	// NotEnoughTextSummary replaces the model output for near-empty documents.
	NotEnoughTextSummary = "(Not enough text extracted to summarize.)"

	defaultContentType = "application/octet-stream"
	keyPrefix          = "documents/"
)

// ConnAcquirer hands out request-scoped database connections.
// *database.Connector satisfies it.
type ConnAcquirer interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
}

// DocumentListResult is the service-level DTO for listed documents.
type DocumentListResult struct {
	Items []model.Document `json:"items"`
	Total int              `json:"total"`
}

// DocumentService defines the document pipeline use cases.
type DocumentService interface {
	// Upload stores the bytes and a metadata record, then summarizes the content.
	// Empty content is rejected before anything is written.
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (*model.UploadResult, error)

	// Resummarize re-derives the summary of a stored document from its raw bytes.
	Resummarize(ctx context.Context, id int64) (*model.SummaryResult, error)

	// List returns documents newest first. A non-positive limit returns all of them.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document record.
	Get(ctx context.Context, id int64) (*model.Document, error)

	// Delete removes the blob (best effort) and the record. Unknown ids are a no-op.
	Delete(ctx context.Context, id int64) error
}

type documentService struct {
	conns  ConnAcquirer
	repos  repository.Factory
	store  storage.Storage
	sum    summarizer.Summarizer
	log    *logrus.Logger
	tracer trace.Tracer
}

// NewDocumentService constructs a DocumentService. A nil log uses the logrus standard logger.
func NewDocumentService(conns ConnAcquirer, repos repository.Factory, store storage.Storage, sum summarizer.Summarizer, log *logrus.Logger) DocumentService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &documentService{
		conns:  conns,
		repos:  repos,
		store:  store,
		sum:    sum,
		log:    log,
		tracer: otel.Tracer("docsummarizer/internal/service"),
	}
}

// withRepo runs fn on a repository bound to a fresh connection and always releases it.
// The connection never outlives the metadata work.
func (s *documentService) withRepo(ctx context.Context, fn func(repository.DocumentRepository) error) error {
	conn, err := s.conns.Acquire(ctx)
	if err != nil {
		return err
	}
	defer database.Release(conn, s.log)
	return fn(s.repos(conn))
}

func (s *documentService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, filename, contentType string) (res *model.UploadResult, err error) {
	ctx, span := s.startSpan(ctx, "DocumentService.Upload", attribute.String("document.filename", filename))
	defer func() { endSpan(span, err) }()

	if r == nil {
		return nil, ErrReaderNil
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyInput
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	span.SetAttributes(attribute.Int("document.size", len(content)))

	key := storageKey(filename)
	info, err := s.store.Put(ctx, key, bytes.NewReader(content), storage.PutObjectOptions{
		Size:        int64(len(content)),
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": filename},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	if info.Key != "" {
		key = info.Key
	}

	var stored *model.Document
	err = s.withRepo(ctx, func(repo repository.DocumentRepository) error {
		var err error
		stored, err = repo.Create(ctx, &model.Document{
			Filename:    filename,
			ContentType: contentType,
			StorageKey:  key,
			Size:        int64(len(content)),
		})
		return err
	})
	if err != nil {
		// Without a record nothing references the blob.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %w; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	span.SetAttributes(attribute.Int64("document.id", stored.ID))

	s.log.WithFields(logrus.Fields{
		"component":   "service",
		"document_id": stored.ID,
		"filename":    filename,
		"size_bytes":  len(content),
	}).Info("document_stored")

	summary, err := s.summarize(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	return &model.UploadResult{ID: stored.ID, Filename: stored.Filename, Summary: summary}, nil
}

func (s *documentService) Resummarize(ctx context.Context, id int64) (res *model.SummaryResult, err error) {
	ctx, span := s.startSpan(ctx, "DocumentService.Resummarize", attribute.Int64("document.id", id))
	defer func() { endSpan(span, err) }()

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	content, err := s.readBlob(ctx, doc)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(ctx, doc.Filename, content)
	if err != nil {
		return nil, err
	}
	return &model.SummaryResult{Summary: summary}, nil
}

func (s *documentService) readBlob(ctx context.Context, doc *model.Document) ([]byte, error) {
	rc, _, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: document %d (%s)", ErrBlobMissing, doc.ID, doc.StorageKey)
		}
		return nil, fmt.Errorf("read from storage: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: document %d (%s)", ErrBlobMissing, doc.ID, doc.StorageKey)
		}
		return nil, fmt.Errorf("read from storage: %w", err)
	}
	return content, nil
}

// summarize runs extract, normalize, the length gate and the model call.
func (s *documentService) summarize(ctx context.Context, filename string, content []byte) (string, error) {
	ctx, span := s.startSpan(ctx, "DocumentService.summarize",
		attribute.String("document.format", extract.FormatOf(filename).String()))
	defer span.End()

	text := extract.Normalize(extract.Extract(filename, content))
	chars := utf8.RuneCountInString(text)
	span.SetAttributes(attribute.Int("text.chars", chars))

	if chars < MinTextChars {
		s.log.WithFields(logrus.Fields{
			"component": "service",
			"filename":  filename,
			"chars":     chars,
		}).Info("summary_skipped_short_text")
		return NotEnoughTextSummary, nil
	}

	summary, err := s.sum.Summarize(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inference failed")
		s.log.WithFields(logrus.Fields{
			"component": "service",
			"filename":  filename,
			"error":     err.Error(),
		}).Error("summarize_failed")
		return "", fmt.Errorf("summarize %s: %w", filename, err)
	}
	return summary, nil
}

// List returns documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (res *DocumentListResult, err error) {
	ctx, span := s.startSpan(ctx, "DocumentService.List")
	defer func() { endSpan(span, err) }()

	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}

	var page *repository.PageResult[model.Document]
	err = s.withRepo(ctx, func(repo repository.DocumentRepository) error {
		var err error
		page, err = repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
		return err
	})
	if err != nil {
		return nil, err
	}
	items := page.Items
	if items == nil {
		items = []model.Document{}
	}
	return &DocumentListResult{Items: items, Total: page.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id int64) (*model.Document, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	var doc *model.Document
	err := s.withRepo(ctx, func(repo repository.DocumentRepository) error {
		var err error
		doc, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DocumentService.Delete", attribute.Int64("document.id", id))
	defer func() { endSpan(span, err) }()

	doc, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.log.WithFields(logrus.Fields{
			"component":   "service",
			"document_id": id,
			"storage_key": doc.StorageKey,
			"error":       err.Error(),
		}).Warn("blob_delete_failed")
	}

	return s.withRepo(ctx, func(repo repository.DocumentRepository) error {
		return repo.Delete(ctx, id)
	})
}

// storageKey combines a random token with the caller's file name for traceability.
func storageKey(filename string) string {
	return keyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + sanitizeFilename(filename)
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if clean == "" || clean == "." || clean == ".." {
		return "upload"
	}
	return clean
}
