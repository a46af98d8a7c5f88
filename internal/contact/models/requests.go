package models

import (
	"regexp"
	"strings"
)

// ContactRequest is the client payload for create and update. Missing fields
// decode to "" and are treated as blank.
type ContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ContactFields is a validated, trimmed payload ready to be stored.
type ContactFields struct {
	Name  string
	Email string
	Phone string
}

// Field names reported by ValidationError.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// Validation messages, surfaced to clients verbatim.
const (
	MsgNameRequired  = "Name is required."
	MsgEmailRequired = "Email is required."
	MsgEmailInvalid  = "Email is not valid."
	MsgPhoneRequired = "Phone number is required."
	MsgPhoneInvalid  = "Phone number is not valid."
)

var (
	emailPattern = regexp.MustCompile(`(?i)^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\(\d{3}\)-\d{3}-\d{4}$`)
)

// ValidationError reports the first rule a payload failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateContact checks req in a fixed order (name, email presence, email
// format, phone presence, phone format) and stops at the first failure. On
// success it returns the fields trimmed of surrounding whitespace.
func ValidateContact(req *ContactRequest) (ContactFields, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)

	switch {
	case name == "":
		return ContactFields{}, &ValidationError{Field: FieldName, Message: MsgNameRequired}
	case email == "":
		return ContactFields{}, &ValidationError{Field: FieldEmail, Message: MsgEmailRequired}
	case !IsValidEmail(email):
		return ContactFields{}, &ValidationError{Field: FieldEmail, Message: MsgEmailInvalid}
	case phone == "":
		return ContactFields{}, &ValidationError{Field: FieldPhone, Message: MsgPhoneRequired}
	case !IsValidPhone(phone):
		return ContactFields{}, &ValidationError{Field: FieldPhone, Message: MsgPhoneInvalid}
	}

	return ContactFields{Name: name, Email: email, Phone: phone}, nil
}

// IsValidEmail reports whether email matches local@domain.tld.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone reports whether phone is exactly (DDD)-DDD-DDDD.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
