package service

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input violates a domain rule
	ErrValidation = errors.New("validation failed")

	// ErrReferenceNotFound is returned when a request names a client or
	// product that does not exist
	ErrReferenceNotFound = errors.New("referenced resource not found")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when a user doesn't have permission for an action
	ErrForbidden = errors.New("forbidden")
)

// Entity errors wrap the common errors so callers can match either
var (
	ErrProductNotFound   = fmt.Errorf("product %w", ErrNotFound)
	ErrClientNotFound    = fmt.Errorf("client %w", ErrNotFound)
	ErrQuotationNotFound = fmt.Errorf("quotation %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrDocumentNotFound  = fmt.Errorf("quotation document %w", ErrNotFound)
	ErrImageNotFound     = fmt.Errorf("product image %w", ErrNotFound)

	ErrProductCodeExists = fmt.Errorf("%w: product code already exists", ErrConflict)
	ErrClientRUTExists   = fmt.Errorf("%w: client RUT already exists", ErrConflict)

	// ErrInvalidStatusTransition is returned when a quotation cannot move to the requested status
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)

	// ErrQuotationClosed is returned when editing the content of a quotation that is no longer pending
	ErrQuotationClosed = fmt.Errorf("%w: quotation is no longer pending", ErrConflict)

	// ErrClientBlocked is returned when a blocked client is named on a new or edited quotation
	ErrClientBlocked = errors.New("client is blocked")

	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
)
