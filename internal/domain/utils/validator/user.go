package validator

import (
	"net/mail"
	"regexp"
	"strings"
)

var phoneRe = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

func Email(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress accepts "Name <addr>", only bare addresses are stored on users.
	return addr.Address == strings.TrimSpace(email)
}

// Phone accepts E.164 numbers, e.g. +4915112345678.
func Phone(phone string) bool {
	return phoneRe.MatchString(phone)
}
