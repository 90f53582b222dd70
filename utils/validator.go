package utils

import (
	"net/mail"
	"strings"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/model"
)

// ValidateEmail checks that the address is usable for the newsletter
// and contact endpoints.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmptyEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return ErrInvalidEmail
	}

	// Reject display-name forms like "Name <a@b.c>"
	if addr.Address != email {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateProduct checks the fields an admin must supply when creating
// or updating a catalog entry.
func ValidateProduct(p model.Product) error {
	if strings.TrimSpace(p.Title.EN) == "" && strings.TrimSpace(p.Title.TR) == "" {
		return ErrMissingTitle
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrMissingCategory
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}
