package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"registru/internal/domain"
	"registru/internal/domain/models"
	"registru/internal/domain/repositories"
	"registru/internal/domain/services"
	"registru/internal/vocab"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const maxDocumentTypeLength = 100

// documentService implements the DocumentService interface
type documentService struct {
	docRepo   repositories.DocumentRepository
	txManager repositories.TransactionManager
	vocab     *vocab.Registry
	logger    *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	vocabRegistry *vocab.Registry,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:   docRepo,
		txManager: txManager,
		vocab:     vocabRegistry,
		logger:    logger,
	}
}

// CreateDocument creates the document row and its version 1 in one
// transaction. An omitted tag defaults to DRAFT.
func (s *documentService) CreateDocument(ctx context.Context, req *services.CreateDocumentRequest) (*models.Document, *models.DocumentVersion, error) {
	if err := s.validateCreateDocumentRequest(req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	tag := "DRAFT"
	if req.Tag != nil {
		tag = *req.Tag
	}
	if !s.vocab.IsDocumentTag(tag) {
		return nil, nil, fmt.Errorf("%w: unknown tag %q", domain.ErrValidation, tag)
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:        uuid.New().String(),
		CompanyID: req.CompanyID,
		Type:      req.Type,
		FilePath:  req.FilePath,
		OCRText:   req.OCRText,
		CreatedAt: now,
		UpdatedAt: now,
	}
	version := &models.DocumentVersion{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		Content:    req.Content,
		Tag:        &tag,
		CreatedAt:  now,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.CreateDocument(txCtx, doc); err != nil {
			return err
		}
		return s.docRepo.InsertNextVersion(txCtx, version)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("document created",
		"document_id", doc.ID,
		"company_id", doc.CompanyID,
		"type", doc.Type,
	)

	return doc, version, nil
}

// GetDocument retrieves a company-scoped document
func (s *documentService) GetDocument(ctx context.Context, documentID, companyID string) (*models.Document, error) {
	return s.docRepo.GetDocument(ctx, documentID, companyID)
}

// AddVersion appends a new immutable snapshot to the document's chain. The
// version number is assigned inside the insert, so concurrent appends get
// distinct consecutive numbers.
func (s *documentService) AddVersion(ctx context.Context, documentID, companyID string, req *services.AddVersionRequest) (*models.DocumentVersion, error) {
	if err := s.validateAddVersionRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Tag != nil && !s.vocab.IsDocumentTag(*req.Tag) {
		return nil, fmt.Errorf("%w: unknown tag %q", domain.ErrValidation, *req.Tag)
	}

	// Ownership check before writing anything
	if _, err := s.docRepo.GetDocument(ctx, documentID, companyID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	version := &models.DocumentVersion{
		ID:                uuid.New().String(),
		DocumentID:        documentID,
		Content:           req.Content,
		Tag:               req.Tag,
		ChangeDescription: req.ChangeDescription,
		CreatedAt:         now,
	}

	if err := s.appendVersion(ctx, documentID, companyID, version, now); err != nil {
		return nil, err
	}

	s.logger.Info("version appended",
		"document_id", documentID,
		"version", version.Version,
	)

	return version, nil
}

// appendVersion runs the insert-plus-touch transaction. Losing the
// version-number race to a concurrent append surfaces as a conflict from the
// unique index; one retry recomputes the number and succeeds unless the
// document is under sustained concurrent writes.
func (s *documentService) appendVersion(ctx context.Context, documentID, companyID string, version *models.DocumentVersion, at time.Time) error {
	appendTx := func() error {
		return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
			if err := s.docRepo.InsertNextVersion(txCtx, version); err != nil {
				return err
			}
			return s.docRepo.TouchDocument(txCtx, documentID, companyID, at)
		})
	}

	err := appendTx()
	if errors.Is(err, domain.ErrConflict) {
		err = appendTx()
	}
	return err
}

// GetVersion retrieves one version by number
func (s *documentService) GetVersion(ctx context.Context, documentID, companyID string, version int) (*models.DocumentVersion, error) {
	if version < 1 {
		return nil, fmt.Errorf("%w: version must be positive", domain.ErrValidation)
	}
	if _, err := s.docRepo.GetDocument(ctx, documentID, companyID); err != nil {
		return nil, err
	}
	return s.docRepo.GetVersion(ctx, documentID, version)
}

// GetLatestVersion retrieves the highest-numbered version
func (s *documentService) GetLatestVersion(ctx context.Context, documentID, companyID string) (*models.DocumentVersion, error) {
	if _, err := s.docRepo.GetDocument(ctx, documentID, companyID); err != nil {
		return nil, err
	}
	return s.docRepo.GetLatestVersion(ctx, documentID)
}

// ListVersions pages the version chain newest-first
func (s *documentService) ListVersions(ctx context.Context, documentID, companyID string, page models.PageOptions) (*models.VersionPage, error) {
	page.ApplyDefaults()
	if _, err := s.docRepo.GetDocument(ctx, documentID, companyID); err != nil {
		return nil, err
	}
	versions, total, err := s.docRepo.ListVersions(ctx, documentID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.VersionPage{Versions: versions, Total: total}, nil
}

// ListVersionsByTag pages versions carrying a lifecycle tag
func (s *documentService) ListVersionsByTag(ctx context.Context, documentID, companyID, tag string, page models.PageOptions) (*models.VersionPage, error) {
	if !s.vocab.IsDocumentTag(tag) {
		return nil, fmt.Errorf("%w: unknown tag %q", domain.ErrValidation, tag)
	}
	page.ApplyDefaults()
	if _, err := s.docRepo.GetDocument(ctx, documentID, companyID); err != nil {
		return nil, err
	}
	versions, total, err := s.docRepo.ListVersionsByTag(ctx, documentID, tag, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.VersionPage{Versions: versions, Total: total}, nil
}

// RollbackToVersion appends a new version copying the target's content. The
// chain only grows; nothing is rewritten.
func (s *documentService) RollbackToVersion(ctx context.Context, documentID, companyID string, targetVersion int, userID string) (*models.DocumentVersion, error) {
	if targetVersion < 1 {
		return nil, fmt.Errorf("%w: version must be positive", domain.ErrValidation)
	}
	if _, err := s.docRepo.GetDocument(ctx, documentID, companyID); err != nil {
		return nil, err
	}

	target, err := s.docRepo.GetVersion(ctx, documentID, targetVersion)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tag := "ROLLBACK"
	description := fmt.Sprintf("Rollback to version %d", target.Version)
	version := &models.DocumentVersion{
		ID:                uuid.New().String(),
		DocumentID:        documentID,
		Content:           target.Content,
		Tag:               &tag,
		ChangeDescription: &description,
		CreatedAt:         now,
	}

	if err := s.appendVersion(ctx, documentID, companyID, version, now); err != nil {
		return nil, err
	}

	s.logger.Info("document rolled back",
		"document_id", documentID,
		"target_version", targetVersion,
		"new_version", version.Version,
		"user_id", userID,
	)

	return version, nil
}

// SearchDocuments substring-matches document metadata and joined version text
func (s *documentService) SearchDocuments(ctx context.Context, companyID, term string, page models.PageOptions) (*models.DocumentPage, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrValidation)
	}
	page.ApplyDefaults()
	docs, total, err := s.docRepo.SearchDocuments(ctx, companyID, term, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.DocumentPage{Documents: docs, Total: total}, nil
}

// DeleteDocument removes the document and its whole version chain in one
// transaction. Returns false when no document matched.
func (s *documentService) DeleteDocument(ctx context.Context, documentID, companyID string) (bool, error) {
	var existed bool
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// Ownership check so another tenant's versions are never touched
		if _, err := s.docRepo.GetDocument(txCtx, documentID, companyID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := s.docRepo.DeleteVersionsByDocument(txCtx, documentID); err != nil {
			return err
		}
		var err error
		existed, err = s.docRepo.DeleteDocument(txCtx, documentID, companyID)
		return err
	})
	if err != nil {
		return false, err
	}

	if existed {
		s.logger.Info("document deleted", "document_id", documentID, "company_id", companyID)
	}

	return existed, nil
}

func (s *documentService) validateCreateDocumentRequest(req *services.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.CompanyID, validation.Required),
		validation.Field(&req.Type,
			validation.Required,
			validation.Length(1, maxDocumentTypeLength),
		),
		validation.Field(&req.Content, validation.Required),
	)
}

func (s *documentService) validateAddVersionRequest(req *services.AddVersionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Content, validation.Required),
	)
}
