package authsdk

import (
	"fmt"
	"net/mail"
	"strings"
)

// Password length bounds accepted by the login endpoint. The service's
// default password policy registers within the same bounds.
const (
	LoginPasswordMinLength = 6
	LoginPasswordMaxLength = 15
)

// Validate checks the shape of a login request before any credential is
// looked at. Returns field names mapped to messages, or nil if valid.
func (l LoginRequest) Validate() map[string][]string {
	errs := make(map[string][]string)

	email := strings.TrimSpace(l.Email)
	switch {
	case email == "":
		errs["Email"] = append(errs["Email"], "The Email field is required.")
	case !isEmailAddress(email):
		errs["Email"] = append(errs["Email"], "The Email field is not a valid e-mail address.")
	}

	switch n := len([]rune(l.Password)); {
	case n == 0:
		errs["Password"] = append(errs["Password"], "The Password field is required.")
	case n < LoginPasswordMinLength || n > LoginPasswordMaxLength:
		errs["Password"] = append(errs["Password"], fmt.Sprintf(
			"Your Password must be between %d and %d characters",
			LoginPasswordMinLength, LoginPasswordMaxLength,
		))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func isEmailAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
