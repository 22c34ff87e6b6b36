// Package services defines the business logic for complaint submission and
// listing. This file centralizes service-level error values so handlers can
// map them to HTTP results consistently.
package services

import "errors"

var (
	// ErrEmptyDescription is returned when a submission has no description
	// text after trimming.
	ErrEmptyDescription = errors.New("description is empty")

	// ErrTooLong is returned when a description exceeds the configured rune
	// limit.
	ErrTooLong = errors.New("description too long")
)
