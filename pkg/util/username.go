package util

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrUsernameReserved     = errors.New("username 'me' is reserved")
	ErrUsernameInvalidChars = errors.New("username may contain only letters, digits and @/./+/-/_")

	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
)

const UsernameMaxLength = 150

// ValidateUsername applies the account username rules.
func ValidateUsername(username string) error {
	if strings.EqualFold(username, "me") {
		return ErrUsernameReserved
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalidChars
	}
	return nil
}
