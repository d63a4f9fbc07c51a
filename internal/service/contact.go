package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"registru/internal/domain"
	"registru/internal/domain/models"
	"registru/internal/domain/repositories"
	"registru/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// fallbackDisplayName is used when neither name part nor an explicit display
// name is available.
const fallbackDisplayName = "Unnamed contact"

var threadChannels = map[string]struct{}{
	"email":    {},
	"sms":      {},
	"phone":    {},
	"whatsapp": {},
}

// contactService implements the ContactService interface
type contactService struct {
	contactRepo repositories.ContactRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewContactService creates a new contact service
func NewContactService(
	contactRepo repositories.ContactRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.ContactService {
	return &contactService{
		contactRepo: contactRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// deriveDisplayName joins the non-empty name parts with a space.
func deriveDisplayName(firstName, lastName *string) string {
	var parts []string
	if firstName != nil && *firstName != "" {
		parts = append(parts, *firstName)
	}
	if lastName != nil && *lastName != "" {
		parts = append(parts, *lastName)
	}
	if len(parts) == 0 {
		return fallbackDisplayName
	}
	return strings.Join(parts, " ")
}

// CreateContact creates a contact. DisplayName falls back to the joined name
// parts when not supplied.
func (s *contactService) CreateContact(ctx context.Context, req *services.CreateContactRequest) (*models.Contact, error) {
	if err := s.validateCreateContactRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	displayName := deriveDisplayName(req.FirstName, req.LastName)
	if req.DisplayName != nil && *req.DisplayName != "" {
		displayName = *req.DisplayName
	}

	now := time.Now().UTC()
	contact := &models.Contact{
		ID:          uuid.New().String(),
		CompanyID:   req.CompanyID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: displayName,
		Email:       req.Email,
		Phone:       req.Phone,
		Metadata:    req.Metadata,
		OptOut:      req.OptOut,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.SocialProfiles != nil {
		contact.SocialProfiles = *req.SocialProfiles
	}
	if req.CommunicationPreferences != nil {
		contact.CommunicationPreferences = *req.CommunicationPreferences
	}
	if contact.Metadata == nil {
		contact.Metadata = map[string]string{}
	}

	if err := s.contactRepo.CreateContact(ctx, contact); err != nil {
		return nil, err
	}

	s.logger.Info("contact created",
		"contact_id", contact.ID,
		"company_id", contact.CompanyID,
	)

	return contact, nil
}

// GetContact retrieves a company-scoped contact
func (s *contactService) GetContact(ctx context.Context, contactID, companyID string) (*models.Contact, error) {
	return s.contactRepo.GetContact(ctx, contactID, companyID)
}

// UpdateContact applies partial updates. DisplayName is re-derived only when
// a name part changed and no display name came in the same request.
func (s *contactService) UpdateContact(ctx context.Context, contactID, companyID string, req *services.UpdateContactRequest) (*models.Contact, error) {
	contact, err := s.contactRepo.GetContact(ctx, contactID, companyID)
	if err != nil {
		return nil, err
	}

	nameChanged := false
	if req.FirstName != nil {
		contact.FirstName = req.FirstName
		nameChanged = true
	}
	if req.LastName != nil {
		contact.LastName = req.LastName
		nameChanged = true
	}
	if req.DisplayName != nil && *req.DisplayName != "" {
		contact.DisplayName = *req.DisplayName
	} else if nameChanged {
		contact.DisplayName = deriveDisplayName(contact.FirstName, contact.LastName)
	}

	if req.Email != nil {
		contact.Email = req.Email
	}
	if req.Phone != nil {
		contact.Phone = req.Phone
	}
	if req.SocialProfiles != nil {
		contact.SocialProfiles = *req.SocialProfiles
	}
	if req.CommunicationPreferences != nil {
		contact.CommunicationPreferences = *req.CommunicationPreferences
	}
	if req.Metadata != nil {
		contact.Metadata = req.Metadata
	}
	if req.OptOut != nil {
		contact.OptOut = *req.OptOut
	}
	contact.UpdatedAt = time.Now().UTC()

	if err := s.contactRepo.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

// DeleteContact removes the contact. Returns false when no row matched.
func (s *contactService) DeleteContact(ctx context.Context, contactID, companyID string) (bool, error) {
	existed, err := s.contactRepo.DeleteContact(ctx, contactID, companyID)
	if err != nil {
		return false, err
	}
	if existed {
		s.logger.Info("contact deleted", "contact_id", contactID, "company_id", companyID)
	}
	return existed, nil
}

// ListContacts pages contacts, optionally filtered by a search term
func (s *contactService) ListContacts(ctx context.Context, companyID, term string, page models.PageOptions) (*models.ContactPage, error) {
	page.ApplyDefaults()
	contacts, total, err := s.contactRepo.ListContacts(ctx, companyID, term, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.ContactPage{Contacts: contacts, Total: total}, nil
}

// CreateThread opens a message thread, optionally attached to a contact
func (s *contactService) CreateThread(ctx context.Context, req *services.CreateThreadRequest) (*models.MessageThread, error) {
	if err := s.validateCreateThreadRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.ContactID != nil {
		if _, err := s.contactRepo.GetContact(ctx, *req.ContactID, req.CompanyID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	thread := &models.MessageThread{
		ID:        uuid.New().String(),
		CompanyID: req.CompanyID,
		ContactID: req.ContactID,
		Subject:   req.Subject,
		Channel:   req.Channel,
		Status:    "open",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.contactRepo.CreateThread(ctx, thread); err != nil {
		return nil, err
	}

	s.logger.Info("thread created",
		"thread_id", thread.ID,
		"company_id", thread.CompanyID,
		"channel", thread.Channel,
	)

	return thread, nil
}

// GetThread retrieves a company-scoped thread
func (s *contactService) GetThread(ctx context.Context, threadID, companyID string) (*models.MessageThread, error) {
	return s.contactRepo.GetThread(ctx, threadID, companyID)
}

// ListThreads lists threads most recently active first
func (s *contactService) ListThreads(ctx context.Context, companyID string, contactID *string) ([]models.MessageThread, error) {
	return s.contactRepo.ListThreads(ctx, companyID, contactID)
}

// PostMessage appends a message and bumps the thread's activity timestamps
// in one transaction. Outbound messages record the sender.
func (s *contactService) PostMessage(ctx context.Context, threadID, companyID string, req *services.PostMessageRequest, userID string) (*models.Message, error) {
	if err := s.validatePostMessageRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.contactRepo.GetThread(ctx, threadID, companyID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sentAt := now
	if req.SentAt != nil {
		sentAt = req.SentAt.UTC()
	}

	msg := &models.Message{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		CompanyID: companyID,
		Direction: req.Direction,
		Body:      req.Body,
		SentAt:    sentAt,
		CreatedAt: now,
	}
	if req.Direction == "outbound" {
		sender := userID
		msg.SentBy = &sender
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.contactRepo.InsertMessage(txCtx, msg); err != nil {
			return err
		}
		return s.contactRepo.BumpThreadActivity(txCtx, threadID, companyID, sentAt)
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// ListMessages pages a thread's messages oldest-first
func (s *contactService) ListMessages(ctx context.Context, threadID, companyID string, page models.PageOptions) (*models.MessagePage, error) {
	page.ApplyDefaults()
	if _, err := s.contactRepo.GetThread(ctx, threadID, companyID); err != nil {
		return nil, err
	}
	messages, total, err := s.contactRepo.ListMessages(ctx, threadID, companyID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.MessagePage{Messages: messages, Total: total}, nil
}

func (s *contactService) validateCreateContactRequest(req *services.CreateContactRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.CompanyID, validation.Required),
		validation.Field(&req.Email, validation.By(optionalEmail)),
	)
}

func (s *contactService) validateCreateThreadRequest(req *services.CreateThreadRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.CompanyID, validation.Required),
		validation.Field(&req.Subject, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Channel, validation.Required, validation.By(knownChannel)),
	)
}

func (s *contactService) validatePostMessageRequest(req *services.PostMessageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Direction, validation.Required, validation.In("inbound", "outbound")),
		validation.Field(&req.Body, validation.Required),
	)
}

func optionalEmail(value interface{}) error {
	email, ok := value.(*string)
	if !ok || email == nil || *email == "" {
		return nil
	}
	if !strings.Contains(*email, "@") {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

func knownChannel(value interface{}) error {
	channel, _ := value.(string)
	if _, ok := threadChannels[channel]; !ok {
		return fmt.Errorf("must be one of email, sms, phone, whatsapp")
	}
	return nil
}
