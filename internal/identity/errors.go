package identity

import "fmt"

type AuthErrorKind int

const (
	AuthInvalidCredentials AuthErrorKind = iota + 1
	AuthEmailInUse
	AuthUnavailable
	AuthInvalidInput
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthInvalidCredentials:
		return "invalid credentials"
	case AuthEmailInUse:
		return "email already registered"
	case AuthUnavailable:
		return "identity service unavailable"
	case AuthInvalidInput:
		return "invalid input"
	default:
		return "auth error"
	}
}

// AuthError is returned by every failing identity operation.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func authErr(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}
