package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contactmanager/internal/contact/models"
	id "contactmanager/pkg/domain"
	dErrors "contactmanager/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// parseContactID accepts the nil UUID so lookups for it answer not found.
func parseContactID(r *http.Request) (id.ContactID, error) {
	contactID, err := id.ParseContactRef(chi.URLParam(r, "id"))
	if err != nil {
		return id.ContactID{}, dErrors.New(dErrors.CodeBadRequest, "invalid contact id")
	}
	return contactID, nil
}

// decodeContactRequest returns nil for an empty or JSON null body so the
// service can reject the missing payload itself.
func decodeContactRequest(r *http.Request) (*models.ContactRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	if len(body) > maxBodyBytes {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body too large")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var req *models.ContactRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return req, nil
}
