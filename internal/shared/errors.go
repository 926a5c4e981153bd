package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrForbidden        = fmt.Errorf("forbidden")
	ErrSessionExpired   = fmt.Errorf("session expired")

	// Persistence errors
	ErrNotFound           = fmt.Errorf("not found")
	ErrConflict           = fmt.Errorf("already exists")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Export errors
	ErrUnsupportedFormat = fmt.Errorf("unsupported export format")
	ErrPagination        = fmt.Errorf("invalid pagination geometry")
	ErrExportFailed      = fmt.Errorf("export failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
