package domain

import (
	"errors"
	"strings"
)

var (
	ErrCredentialCheckFailed = errors.New("credential check failed")
	ErrInvalidPrompt         = errors.New("invalid prompt")
	ErrNoImageReturned       = errors.New("no image returned")
	ErrNoVideoReturned       = errors.New("no video returned")
	ErrDownloadFailed        = errors.New("video download failed")
	ErrBusy                  = errors.New("a generation is already in flight")
	ErrLogoRequired          = errors.New("a logo must be generated first")
	ErrAnimationRequired     = errors.New("an animation must be generated first")
	ErrInvalidStep           = errors.New("invalid step")
	ErrSessionNotFound       = errors.New("session not found")
)

// ProviderError carries a message reported by the generation provider,
// covering transport, auth and quota failures alike.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// accessDeniedMarker is the provider wording for an API key that cannot see
// the requested model. It is the one error the workflow recovers from by
// re-running credential selection.
const accessDeniedMarker = "requested entity was not found"

// IsAccessDenied reports whether err is a provider failure caused by a
// rejected or insufficient API key.
func IsAccessDenied(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return strings.Contains(strings.ToLower(pe.Message), accessDeniedMarker)
}
