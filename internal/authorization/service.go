package authorization

import (
	"context"
	"errors"
)

const (
	SubjectAnonymous = "anonymous"
	SubjectAPIKey    = "api_key"
)

type Service interface {
	// IsPublic reports whether an anonymous caller may perform method on path.
	IsPublic(ctx context.Context, path, method string) (bool, error)
	Authorize(ctx context.Context, subject, path, method string) error
}

var (
	ErrInvalidSubject = errors.New("invalid_subject")
	ErrInvalidObject  = errors.New("invalid_object")
	ErrInvalidAction  = errors.New("invalid_action")
	ErrForbidden      = errors.New("forbidden")
)
