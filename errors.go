package authclient

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenMalformed  = "AUTH_TOKEN_MALFORMED"
	TextCodeTokenExpired    = "AUTH_TOKEN_EXPIRED"
	TextCodeNoCredential    = "AUTH_NO_CREDENTIAL"
	TextCodeUpstreamFailure = "AUTH_UPSTREAM_FAILURE"
)

// ErrTokenMalformed is returned when a credential cannot be decoded into claims.
var ErrTokenMalformed = errors.New("credential is malformed", errors.CategoryBadInput).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned when a credential's expiry is not in the future.
var ErrTokenExpired = errors.New("credential is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrNoCredential is returned by credential stores when the slot is empty.
var ErrNoCredential = errors.New("no stored credential", errors.CategoryNotFound).
	WithTextCode(TextCodeNoCredential).
	WithCode(errors.CodeNotFound)

// IsTokenExpiredError will check for expired credentials
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsNoCredentialError reports whether err marks an empty credential slot.
func IsNoCredentialError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeNoCredential {
		return true
	}
	return strings.Contains(err.Error(), "no stored credential")
}

// IsUpstreamError reports whether err came back from the account backend.
func IsUpstreamError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	return errors.As(err, &rich) && rich.TextCode == TextCodeUpstreamFailure
}
