package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"registru/internal/domain"
	"registru/internal/domain/models"
	"registru/internal/domain/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresContactRepository implements the ContactRepository interface.
// The social_profiles, communication_preferences and metadata columns are
// JSONB; pgx marshals the typed structs through encoding/json.
type PostgresContactRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewContactRepository creates a new contact repository
func NewContactRepository(config *RepositoryConfig) repositories.ContactRepository {
	return &PostgresContactRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateContact inserts a contact row
func (r *PostgresContactRepository) CreateContact(ctx context.Context, contact *models.Contact) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, company_id, first_name, last_name, display_name, email, phone,
			social_profiles, communication_preferences, metadata, opt_out, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, r.tables.Contacts)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		contact.ID,
		contact.CompanyID,
		contact.FirstName,
		contact.LastName,
		contact.DisplayName,
		contact.Email,
		contact.Phone,
		contact.SocialProfiles,
		contact.CommunicationPreferences,
		contact.Metadata,
		contact.OptOut,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("contact %s already exists", contact.ID),
				ResourceType: "contact",
				ResourceID:   contact.ID,
			}
		}
		return fmt.Errorf("create contact: %w", err)
	}

	return nil
}

const contactColumns = `id, company_id, first_name, last_name, display_name, email, phone,
	social_profiles, communication_preferences, metadata, opt_out, created_at, updated_at`

func scanContact(row interface{ Scan(dest ...any) error }, contact *models.Contact) error {
	return row.Scan(
		&contact.ID,
		&contact.CompanyID,
		&contact.FirstName,
		&contact.LastName,
		&contact.DisplayName,
		&contact.Email,
		&contact.Phone,
		&contact.SocialProfiles,
		&contact.CommunicationPreferences,
		&contact.Metadata,
		&contact.OptOut,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
}

// GetContact retrieves a company-scoped contact by ID
func (r *PostgresContactRepository) GetContact(ctx context.Context, id, companyID string) (*models.Contact, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = $1 AND company_id = $2
	`, contactColumns, r.tables.Contacts)

	var contact models.Contact
	executor := GetExecutor(ctx, r.pool)
	err := scanContact(executor.QueryRow(ctx, query, id, companyID), &contact)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("contact %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}

	return &contact, nil
}

// UpdateContact writes the mutable contact columns
func (r *PostgresContactRepository) UpdateContact(ctx context.Context, contact *models.Contact) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET first_name = $1, last_name = $2, display_name = $3, email = $4, phone = $5,
			social_profiles = $6, communication_preferences = $7, metadata = $8, opt_out = $9, updated_at = $10
		WHERE id = $11 AND company_id = $12
	`, r.tables.Contacts)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		contact.FirstName,
		contact.LastName,
		contact.DisplayName,
		contact.Email,
		contact.Phone,
		contact.SocialProfiles,
		contact.CommunicationPreferences,
		contact.Metadata,
		contact.OptOut,
		contact.UpdatedAt,
		contact.ID,
		contact.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("contact %s: %w", contact.ID, domain.ErrNotFound)
	}

	return nil
}

// DeleteContact removes the contact row
func (r *PostgresContactRepository) DeleteContact(ctx context.Context, id, companyID string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND company_id = $2`, r.tables.Contacts)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, companyID)
	if err != nil {
		return false, fmt.Errorf("delete contact: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListContacts pages contacts, optionally substring-filtered on display name
// and email
func (r *PostgresContactRepository) ListContacts(ctx context.Context, companyID, term string, limit, offset int) ([]models.Contact, int, error) {
	whereClause := "company_id = $1"
	args := []interface{}{companyID}
	paramIndex := 2

	if term != "" {
		whereClause += fmt.Sprintf(" AND (display_name ILIKE $%d OR email ILIKE $%d)", paramIndex, paramIndex)
		args = append(args, "%"+term+"%")
		paramIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY display_name ASC
		LIMIT $%d OFFSET $%d
	`, contactColumns, r.tables.Contacts, whereClause, paramIndex, paramIndex+1)

	listArgs := append(args, limit, offset)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var contact models.Contact
		if err := scanContact(rows, &contact); err != nil {
			return nil, 0, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate contacts: %w", err)
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.tables.Contacts, whereClause)
	var total int
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	return contacts, total, nil
}

// CreateThread inserts a thread row
func (r *PostgresContactRepository) CreateThread(ctx context.Context, thread *models.MessageThread) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, company_id, contact_id, subject, channel, status, last_message_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.MessageThreads)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		thread.ID,
		thread.CompanyID,
		thread.ContactID,
		thread.Subject,
		thread.Channel,
		thread.Status,
		thread.LastMessageAt,
		thread.CreatedAt,
		thread.UpdatedAt,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("contact for thread: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create thread: %w", err)
	}

	return nil
}

// GetThread retrieves a company-scoped thread by ID
func (r *PostgresContactRepository) GetThread(ctx context.Context, id, companyID string) (*models.MessageThread, error) {
	query := fmt.Sprintf(`
		SELECT id, company_id, contact_id, subject, channel, status, last_message_at, created_at, updated_at
		FROM %s
		WHERE id = $1 AND company_id = $2
	`, r.tables.MessageThreads)

	var thread models.MessageThread
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, companyID).Scan(
		&thread.ID,
		&thread.CompanyID,
		&thread.ContactID,
		&thread.Subject,
		&thread.Channel,
		&thread.Status,
		&thread.LastMessageAt,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get thread: %w", err)
	}

	return &thread, nil
}

// ListThreads lists threads most recently active first
func (r *PostgresContactRepository) ListThreads(ctx context.Context, companyID string, contactID *string) ([]models.MessageThread, error) {
	query := fmt.Sprintf(`
		SELECT id, company_id, contact_id, subject, channel, status, last_message_at, created_at, updated_at
		FROM %s
		WHERE company_id = $1
	`, r.tables.MessageThreads)

	args := []interface{}{companyID}
	if contactID != nil {
		query += ` AND contact_id = $2`
		args = append(args, *contactID)
	}
	query += ` ORDER BY COALESCE(last_message_at, created_at) DESC`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []models.MessageThread
	for rows.Next() {
		var thread models.MessageThread
		err := rows.Scan(
			&thread.ID,
			&thread.CompanyID,
			&thread.ContactID,
			&thread.Subject,
			&thread.Channel,
			&thread.Status,
			&thread.LastMessageAt,
			&thread.CreatedAt,
			&thread.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, thread)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}
	if threads == nil {
		threads = []models.MessageThread{}
	}

	return threads, nil
}

// InsertMessage appends a message row
func (r *PostgresContactRepository) InsertMessage(ctx context.Context, msg *models.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, thread_id, company_id, direction, body, sent_by, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		msg.ID,
		msg.ThreadID,
		msg.CompanyID,
		msg.Direction,
		msg.Body,
		msg.SentBy,
		msg.SentAt,
		msg.CreatedAt,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("thread %s: %w", msg.ThreadID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// BumpThreadActivity advances last_message_at/updated_at after a message
func (r *PostgresContactRepository) BumpThreadActivity(ctx context.Context, threadID, companyID string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET last_message_at = $1, updated_at = $1 WHERE id = $2 AND company_id = $3
	`, r.tables.MessageThreads)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, threadID, companyID)
	if err != nil {
		return fmt.Errorf("bump thread activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("thread %s: %w", threadID, domain.ErrNotFound)
	}

	return nil
}

// ListMessages pages messages oldest-first with the total count
func (r *PostgresContactRepository) ListMessages(ctx context.Context, threadID, companyID string, limit, offset int) ([]models.Message, int, error) {
	query := fmt.Sprintf(`
		SELECT id, thread_id, company_id, direction, body, sent_by, sent_at, created_at
		FROM %s
		WHERE thread_id = $1 AND company_id = $2
		ORDER BY sent_at ASC
		LIMIT $3 OFFSET $4
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, threadID, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ThreadID,
			&msg.CompanyID,
			&msg.Direction,
			&msg.Body,
			&msg.SentBy,
			&msg.SentAt,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate messages: %w", err)
	}
	if messages == nil {
		messages = []models.Message{}
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s WHERE thread_id = $1 AND company_id = $2
	`, r.tables.Messages)
	var total int
	if err := executor.QueryRow(ctx, countQuery, threadID, companyID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	return messages, total, nil
}
