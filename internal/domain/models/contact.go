package models

import (
	"time"
)

// SocialProfiles holds the contact's social links. Stored as JSONB; the
// original free-text column is replaced with a checked shape.
type SocialProfiles struct {
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Website   string `json:"website,omitempty"`
}

// CommunicationPreferences controls which channels the contact accepts.
type CommunicationPreferences struct {
	PreferredChannel string `json:"preferred_channel,omitempty"`
	AllowEmail       bool   `json:"allow_email"`
	AllowSMS         bool   `json:"allow_sms"`
	AllowPhone       bool   `json:"allow_phone"`
	Language         string `json:"language,omitempty"`
}

// Contact is a company-scoped CRM contact. DisplayName is derived from
// FirstName/LastName when not supplied explicitly.
type Contact struct {
	ID                       string                   `json:"id" db:"id"`
	CompanyID                string                   `json:"company_id" db:"company_id"`
	FirstName                *string                  `json:"first_name,omitempty" db:"first_name"`
	LastName                 *string                  `json:"last_name,omitempty" db:"last_name"`
	DisplayName              string                   `json:"display_name" db:"display_name"`
	Email                    *string                  `json:"email,omitempty" db:"email"`
	Phone                    *string                  `json:"phone,omitempty" db:"phone"`
	SocialProfiles           SocialProfiles           `json:"social_profiles" db:"social_profiles"`
	CommunicationPreferences CommunicationPreferences `json:"communication_preferences" db:"communication_preferences"`
	Metadata                 map[string]string        `json:"metadata,omitempty" db:"metadata"`
	OptOut                   bool                     `json:"opt_out" db:"opt_out"`
	CreatedAt                time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time                `json:"updated_at" db:"updated_at"`
}

// ContactPage is a page of contacts plus the unpaginated match count.
type ContactPage struct {
	Contacts []Contact `json:"contacts"`
	Total    int       `json:"total"`
}

// MessageThread groups messages exchanged with a contact over one channel.
type MessageThread struct {
	ID            string     `json:"id" db:"id"`
	CompanyID     string     `json:"company_id" db:"company_id"`
	ContactID     *string    `json:"contact_id,omitempty" db:"contact_id"`
	Subject       string     `json:"subject" db:"subject"`
	Channel       string     `json:"channel" db:"channel"`
	Status        string     `json:"status" db:"status"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" db:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Message is a single inbound or outbound message within a thread.
type Message struct {
	ID        string    `json:"id" db:"id"`
	ThreadID  string    `json:"thread_id" db:"thread_id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Direction string    `json:"direction" db:"direction"`
	Body      string    `json:"body" db:"body"`
	SentBy    *string   `json:"sent_by,omitempty" db:"sent_by"`
	SentAt    time.Time `json:"sent_at" db:"sent_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MessagePage is a page of messages plus the unpaginated match count.
type MessagePage struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}
