package repository

import "errors"

var (
	// ErrInvalidLocation indicates an unusable image location
	ErrInvalidLocation = errors.New("invalid image location")

	// ErrReportNotFound indicates the stored report was not found
	ErrReportNotFound = errors.New("report not found")

	// ErrInvalidReport indicates a report missing required fields
	ErrInvalidReport = errors.New("invalid report")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
