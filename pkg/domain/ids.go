// Package domain holds typed identifiers shared across modules.
package domain

import (
	"github.com/google/uuid"

	dErrors "contactmanager/pkg/domain-errors"
)

// ContactID identifies a stored contact. It is generated server-side and
// never the nil UUID.
type ContactID uuid.UUID

// NewContactID returns a fresh random identifier.
func NewContactID() ContactID {
	return ContactID(uuid.New())
}

// ParseContactID parses s at a trust boundary (URL path, message key).
func ParseContactID(s string) (ContactID, error) {
	u, err := parseUUID(s, "contact ID")
	if err != nil {
		return ContactID{}, err
	}
	return ContactID(u), nil
}

// ParseContactRef parses a contact reference used only to look a contact up.
// Unlike ParseContactID it accepts the nil UUID, which never matches a stored
// contact and so resolves to not found.
func ParseContactRef(s string) (ContactID, error) {
	if s == "" {
		return ContactID{}, dErrors.New(dErrors.CodeInvalidInput, "contact ID cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ContactID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid contact ID")
	}
	return ContactID(u), nil
}

func (id ContactID) String() string {
	return uuid.UUID(id).String()
}

func (id ContactID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id ContactID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *ContactID) UnmarshalText(data []byte) error {
	parsed, err := ParseContactID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
