package handler

import (
	"time"

	"contactmanager/internal/contact/models"
	audit "contactmanager/pkg/platform/audit"
)

// ContactResponse is the public JSON projection of a contact.
type ContactResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toContactResponse(c models.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// toContactList never returns nil so empty lists encode as [].
func toContactList(cs []models.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toContactResponse(c))
	}
	return out
}

// AuditEventResponse is one entry in a contact's audit trail.
type AuditEventResponse struct {
	Action    string    `json:"action"`
	ContactID string    `json:"contact_id"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func toAuditList(events []audit.Event) []AuditEventResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, AuditEventResponse{
			Action:    e.Action,
			ContactID: e.ContactID.String(),
			RequestID: e.RequestID,
			Timestamp: e.Timestamp,
		})
	}
	return out
}
