package domain

import "unicode/utf16"

const MinPasswordLength = 8

// ValidatePassword enforces the complexity policy: at least MinPasswordLength
// characters with a lowercase letter, an uppercase letter, a digit and a
// character outside [A-Za-z0-9].
//
// Length is counted in UTF-16 code units, so a character outside the Basic
// Multilingual Plane counts twice, the same as the browser form. Line
// terminators are never accepted.
func ValidatePassword(pw string) error {
	var lower, upper, digit, special bool
	units := 0
	for _, r := range pw {
		units += utf16.RuneLen(r)
		switch {
		case isLineTerminator(r):
			return ErrWeakPassword
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if units < MinPasswordLength || !lower || !upper || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

// CheckDeletion applies the administrative delete guard, in order:
// an actor may not delete the account behind its own session, and the last
// remaining Admin may not be deleted. A target that does not exist passes.
func CheckDeletion(actorEmail string, users []User, targetEmail string) error {
	if SameEmail(actorEmail, targetEmail) {
		return ErrSelfDeletion
	}

	var target *User
	admins := 0
	for i := range users {
		if users[i].IsAdmin() {
			admins++
		}
		if target == nil && SameEmail(users[i].Email, targetEmail) {
			target = &users[i]
		}
	}
	if target != nil && target.IsAdmin() && admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// RoleCounts summarises the account collection for the dashboard.
type RoleCounts struct {
	Total    int `json:"total"`
	Admins   int `json:"admins"`
	Students int `json:"students"`
}

func CountByRole(users []User) RoleCounts {
	c := RoleCounts{Total: len(users)}
	for _, u := range users {
		switch u.Role {
		case RoleAdmin:
			c.Admins++
		case RoleStudent:
			c.Students++
		}
	}
	return c
}
