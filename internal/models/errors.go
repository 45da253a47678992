package models

import "errors"

var (
	ErrSourceUnavailable = errors.New("submission source unavailable")
	ErrDownloadFailed    = errors.New("image download failed")
	ErrUploadFailed      = errors.New("image upload failed")
	ErrNotFound          = errors.New("submission not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStoreUnavailable  = errors.New("document store unavailable")
	ErrDisallowedHost    = errors.New("host not allowed")
	ErrUnauthorized      = errors.New("unauthorized")
)
