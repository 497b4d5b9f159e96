package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrMissingCredential   = errors.New("primary provider credential is required")
	ErrNoSourceImages      = errors.New("at least one source image is required")
	ErrNoAssetsRequested   = errors.New("at least one asset must be requested")
	ErrProviderUnavailable = errors.New("no provider available")
	ErrNoAnalysis          = errors.New("brand analysis has not been run")
)
