package repositories

import (
	"context"
	"time"

	"registru/internal/domain/models"
)

// ContactRepository persists contacts, message threads and messages. Every
// query carries the company predicate.
type ContactRepository interface {
	CreateContact(ctx context.Context, contact *models.Contact) error
	GetContact(ctx context.Context, id, companyID string) (*models.Contact, error)
	UpdateContact(ctx context.Context, contact *models.Contact) error
	DeleteContact(ctx context.Context, id, companyID string) (bool, error)

	// ListContacts pages contacts, optionally substring-filtered on display
	// name and email.
	ListContacts(ctx context.Context, companyID, term string, limit, offset int) ([]models.Contact, int, error)

	CreateThread(ctx context.Context, thread *models.MessageThread) error
	GetThread(ctx context.Context, id, companyID string) (*models.MessageThread, error)
	ListThreads(ctx context.Context, companyID string, contactID *string) ([]models.MessageThread, error)

	InsertMessage(ctx context.Context, msg *models.Message) error

	// BumpThreadActivity advances last_message_at/updated_at after a message
	// lands in the thread.
	BumpThreadActivity(ctx context.Context, threadID, companyID string, at time.Time) error

	ListMessages(ctx context.Context, threadID, companyID string, limit, offset int) ([]models.Message, int, error)
}
