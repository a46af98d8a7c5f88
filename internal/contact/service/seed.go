package service

import (
	"context"

	"contactmanager/internal/contact/models"
)

var demoContacts = []models.ContactRequest{
	{Name: "Ethan Gurne", Email: "ethan.gurne@gmail.com", Phone: "(780)-555-1234"},
	{Name: "Barjot Mundi", Email: "barjot.mundi@gmail.com", Phone: "(604)-555-7788"},
}

// SeedDemo adds the demo contacts through s so they pass the same
// validation as client writes.
func SeedDemo(ctx context.Context, s *Service) ([]models.Contact, error) {
	seeded := make([]models.Contact, 0, len(demoContacts))
	for _, req := range demoContacts {
		result := s.Add(ctx, &req)
		if !result.Success() {
			return seeded, result.Err()
		}
		seeded = append(seeded, result.Data())
	}
	return seeded, nil
}
