package service

import "errors"

var (
	ErrValidation        = errors.New("validation")          // 422
	ErrNotFound          = errors.New("not found")           // 404
	ErrDuplicateKey      = errors.New("duplicate key")       // 400
	ErrNoFieldsSupplied  = errors.New("no fields to update") // 400
	ErrInvalidCredential = errors.New("invalid credentials") // 400
	ErrInvalidToken      = errors.New("invalid token")       // 401
	ErrUnknownSubject    = errors.New("unknown subject")     // 401
	ErrSearchUnavailable = errors.New("search unavailable")  // 503
)
