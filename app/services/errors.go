package services

import "errors"

var (
	// ErrInvalidAddress is returned for a missing or blank address
	ErrInvalidAddress = errors.New("請提供 'address' 參數")
	// ErrJobNotFound is returned for an unknown batch job id
	ErrJobNotFound = errors.New("job not found")
	// ErrTooManyAddresses is returned when a batch exceeds jobs.max_addresses
	ErrTooManyAddresses = errors.New("too many addresses in batch")
)
