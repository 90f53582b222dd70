package utils

import "errors"

var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmptyProductID   = errors.New("product id cannot be empty")
	ErrEmptyPageID      = errors.New("page id cannot be empty")
	ErrEmptyEventName   = errors.New("event name cannot be empty")
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidPrice     = errors.New("price must be a non-negative number")
	ErrMissingTitle     = errors.New("product title cannot be empty in both languages")
	ErrMissingCategory  = errors.New("product category cannot be empty")
	ErrEmptyFilename    = errors.New("filename cannot be empty")
	ErrEmptyFileContent = errors.New("file content cannot be empty")
)
