package services

import (
	"context"
	"time"

	"registru/internal/domain/models"
)

// ContactService handles the contact/thread/message registry.
type ContactService interface {
	// CreateContact derives DisplayName from FirstName/LastName when not
	// supplied.
	CreateContact(ctx context.Context, req *CreateContactRequest) (*models.Contact, error)

	GetContact(ctx context.Context, contactID, companyID string) (*models.Contact, error)

	// UpdateContact re-derives DisplayName only when a name part changed and
	// DisplayName was not explicitly supplied in the same call.
	UpdateContact(ctx context.Context, contactID, companyID string, req *UpdateContactRequest) (*models.Contact, error)

	DeleteContact(ctx context.Context, contactID, companyID string) (bool, error)
	ListContacts(ctx context.Context, companyID, term string, page models.PageOptions) (*models.ContactPage, error)

	CreateThread(ctx context.Context, req *CreateThreadRequest) (*models.MessageThread, error)
	GetThread(ctx context.Context, threadID, companyID string) (*models.MessageThread, error)
	ListThreads(ctx context.Context, companyID string, contactID *string) ([]models.MessageThread, error)

	// PostMessage inserts the message and bumps the thread's activity
	// timestamps in one transaction.
	PostMessage(ctx context.Context, threadID, companyID string, req *PostMessageRequest, userID string) (*models.Message, error)

	ListMessages(ctx context.Context, threadID, companyID string, page models.PageOptions) (*models.MessagePage, error)
}

// CreateContactRequest creates a contact.
type CreateContactRequest struct {
	CompanyID                string                           `json:"-"` // Set by handler from auth context
	FirstName                *string                          `json:"first_name,omitempty"`
	LastName                 *string                          `json:"last_name,omitempty"`
	DisplayName              *string                          `json:"display_name,omitempty"`
	Email                    *string                          `json:"email,omitempty"`
	Phone                    *string                          `json:"phone,omitempty"`
	SocialProfiles           *models.SocialProfiles           `json:"social_profiles,omitempty"`
	CommunicationPreferences *models.CommunicationPreferences `json:"communication_preferences,omitempty"`
	Metadata                 map[string]string                `json:"metadata,omitempty"`
	OptOut                   bool                             `json:"opt_out"`
}

// UpdateContactRequest applies partial contact updates. Nil fields are
// untouched.
type UpdateContactRequest struct {
	FirstName                *string                          `json:"first_name,omitempty"`
	LastName                 *string                          `json:"last_name,omitempty"`
	DisplayName              *string                          `json:"display_name,omitempty"`
	Email                    *string                          `json:"email,omitempty"`
	Phone                    *string                          `json:"phone,omitempty"`
	SocialProfiles           *models.SocialProfiles           `json:"social_profiles,omitempty"`
	CommunicationPreferences *models.CommunicationPreferences `json:"communication_preferences,omitempty"`
	Metadata                 map[string]string                `json:"metadata,omitempty"`
	OptOut                   *bool                            `json:"opt_out,omitempty"`
}

// CreateThreadRequest opens a message thread.
type CreateThreadRequest struct {
	CompanyID string  `json:"-"` // Set by handler from auth context
	ContactID *string `json:"contact_id,omitempty"`
	Subject   string  `json:"subject"`
	Channel   string  `json:"channel"` // email, sms, phone, whatsapp
}

// PostMessageRequest appends a message to a thread.
type PostMessageRequest struct {
	Direction string     `json:"direction"` // inbound or outbound
	Body      string     `json:"body"`
	SentAt    *time.Time `json:"sent_at,omitempty"` // Defaults to now
}
