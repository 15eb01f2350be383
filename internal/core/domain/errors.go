package domain

import "errors"

var (
	ErrValidation         = errors.New("all fields required")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password does not meet complexity rules")
	ErrInvalidCredentials = errors.New("wrong email or password")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrSelfDeletion       = errors.New("you can't delete your own account while signed in")
	ErrLastAdmin          = errors.New("cannot delete the last admin account")
	ErrUnauthenticated    = errors.New("please login")
	ErrForbidden          = errors.New("unauthorized")
)

// IsAuthError reports whether err is a credential mismatch of either kind.
// Unknown account and wrong password share ErrInvalidCredentials on purpose.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrIncorrectPassword)
}
