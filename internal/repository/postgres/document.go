package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"registru/internal/domain"
	"registru/internal/domain/models"
	"registru/internal/domain/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateDocument inserts a document row
func (r *PostgresDocumentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, company_id, type, file_path, ocr_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		doc.ID,
		doc.CompanyID,
		doc.Type,
		doc.FilePath,
		doc.OCRText,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s already exists", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetDocument retrieves a company-scoped document by ID
func (r *PostgresDocumentRepository) GetDocument(ctx context.Context, id, companyID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, company_id, type, file_path, ocr_text, created_at, updated_at
		FROM %s
		WHERE id = $1 AND company_id = $2
	`, r.tables.Documents)

	var doc models.Document
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, companyID).Scan(
		&doc.ID,
		&doc.CompanyID,
		&doc.Type,
		&doc.FilePath,
		&doc.OCRText,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// TouchDocument bumps updated_at on the parent after a version append
func (r *PostgresDocumentRepository) TouchDocument(ctx context.Context, id, companyID string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET updated_at = $1 WHERE id = $2 AND company_id = $3
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id, companyID)
	if err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteDocument removes the document row
func (r *PostgresDocumentRepository) DeleteDocument(ctx context.Context, id, companyID string) (bool, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE id = $1 AND company_id = $2
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, companyID)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// DeleteVersionsByDocument removes all versions under a document
func (r *PostgresDocumentRepository) DeleteVersionsByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE document_id = $1
	`, r.tables.DocumentVersions)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete document versions: %w", err)
	}

	return nil
}

// InsertNextVersion inserts a version row, assigning the version number
// inside the INSERT. Computing COALESCE(MAX(version),0)+1 in the same
// statement closes the read-then-insert gap two concurrent appends would
// otherwise race through; the unique index on (document_id, version) backs
// it up.
func (r *PostgresDocumentRepository) InsertNextVersion(ctx context.Context, v *models.DocumentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, content, version, tag, change_description, created_at)
		SELECT $1, $2, $3, COALESCE(MAX(version), 0) + 1, $4, $5, $6
		FROM %s
		WHERE document_id = $2
		RETURNING version
	`, r.tables.DocumentVersions, r.tables.DocumentVersions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		v.ID,
		v.DocumentID,
		v.Content,
		v.Tag,
		v.ChangeDescription,
		v.CreatedAt,
	).Scan(&v.Version)
	if err != nil {
		if IsPgDuplicateError(err) {
			// Lost a version-number race to a concurrent append; the
			// service retries the transaction once
			return &domain.ConflictError{
				Message:      fmt.Sprintf("version number conflict on document %s", v.DocumentID),
				ResourceType: "document_version",
				ResourceID:   v.DocumentID,
			}
		}
		return fmt.Errorf("insert document version: %w", err)
	}

	return nil
}

// GetVersion retrieves one version by its number
func (r *PostgresDocumentRepository) GetVersion(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, content, version, tag, change_description, created_at
		FROM %s
		WHERE document_id = $1 AND version = $2
	`, r.tables.DocumentVersions)

	var v models.DocumentVersion
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID, version).Scan(
		&v.ID,
		&v.DocumentID,
		&v.Content,
		&v.Version,
		&v.Tag,
		&v.ChangeDescription,
		&v.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %d of document %s: %w", version, documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document version: %w", err)
	}

	return &v, nil
}

// GetLatestVersion retrieves the highest-numbered version
func (r *PostgresDocumentRepository) GetLatestVersion(ctx context.Context, documentID string) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, content, version, tag, change_description, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY version DESC
		LIMIT 1
	`, r.tables.DocumentVersions)

	var v models.DocumentVersion
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID).Scan(
		&v.ID,
		&v.DocumentID,
		&v.Content,
		&v.Version,
		&v.Tag,
		&v.ChangeDescription,
		&v.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s has no versions: %w", documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get latest document version: %w", err)
	}

	return &v, nil
}

// ListVersions lists versions newest-first with the total count
func (r *PostgresDocumentRepository) ListVersions(ctx context.Context, documentID string, limit, offset int) ([]models.DocumentVersion, int, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, content, version, tag, change_description, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY version DESC
		LIMIT $2 OFFSET $3
	`, r.tables.DocumentVersions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()

	versions, err := scanVersions(rows)
	if err != nil {
		return nil, 0, err
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE document_id = $1`, r.tables.DocumentVersions)
	var total int
	if err := executor.QueryRow(ctx, countQuery, documentID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count document versions: %w", err)
	}

	return versions, total, nil
}

// ListVersionsByTag lists versions carrying a tag with the total count
func (r *PostgresDocumentRepository) ListVersionsByTag(ctx context.Context, documentID, tag string, limit, offset int) ([]models.DocumentVersion, int, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, content, version, tag, change_description, created_at
		FROM %s
		WHERE document_id = $1 AND tag = $2
		ORDER BY version DESC
		LIMIT $3 OFFSET $4
	`, r.tables.DocumentVersions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID, tag, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list document versions by tag: %w", err)
	}
	defer rows.Close()

	versions, err := scanVersions(rows)
	if err != nil {
		return nil, 0, err
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s WHERE document_id = $1 AND tag = $2
	`, r.tables.DocumentVersions)
	var total int
	if err := executor.QueryRow(ctx, countQuery, documentID, tag).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count document versions by tag: %w", err)
	}

	return versions, total, nil
}

// SearchDocuments substring-matches document metadata and the joined version
// text; distinct documents, newest first
func (r *PostgresDocumentRepository) SearchDocuments(ctx context.Context, companyID, term string, limit, offset int) ([]models.Document, int, error) {
	pattern := "%" + term + "%"

	query := fmt.Sprintf(`
		SELECT DISTINCT d.id, d.company_id, d.type, d.file_path, d.ocr_text, d.created_at, d.updated_at
		FROM %s d
		LEFT JOIN %s v ON v.document_id = d.id
		WHERE d.company_id = $1
		  AND (d.type ILIKE $2
		    OR d.ocr_text ILIKE $2
		    OR v.content ILIKE $2
		    OR v.tag ILIKE $2
		    OR v.change_description ILIKE $2)
		ORDER BY d.created_at DESC
		LIMIT $3 OFFSET $4
	`, r.tables.Documents, r.tables.DocumentVersions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, companyID, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.CompanyID,
			&doc.Type,
			&doc.FilePath,
			&doc.OCRText,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents: %w", err)
	}
	if documents == nil {
		documents = []models.Document{}
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(DISTINCT d.id)
		FROM %s d
		LEFT JOIN %s v ON v.document_id = d.id
		WHERE d.company_id = $1
		  AND (d.type ILIKE $2
		    OR d.ocr_text ILIKE $2
		    OR v.content ILIKE $2
		    OR v.tag ILIKE $2
		    OR v.change_description ILIKE $2)
	`, r.tables.Documents, r.tables.DocumentVersions)

	var total int
	if err := executor.QueryRow(ctx, countQuery, companyID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count document search: %w", err)
	}

	return documents, total, nil
}

// scanVersions collects version rows, returning an empty slice instead of nil
func scanVersions(rows pgx.Rows) ([]models.DocumentVersion, error) {
	var versions []models.DocumentVersion
	for rows.Next() {
		var v models.DocumentVersion
		err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.Content,
			&v.Version,
			&v.Tag,
			&v.ChangeDescription,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document versions: %w", err)
	}
	if versions == nil {
		versions = []models.DocumentVersion{}
	}
	return versions, nil
}
