package domain

import (
	"errors"
	"net/url"
	"strings"
)

// ErrEmptyTicket is returned when no ticket token can be found in the input.
var ErrEmptyTicket = errors.New("domain: empty ticket token")

const verifySegment = "/verify/"

// ParseTicketToken extracts the ticket token from scanner output.
// Accepts a bare token or any URL whose path contains /verify/<token>/.
func ParseTicketToken(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyTicket
	}
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		if tok := tokenAfterVerify(u.Path); tok != "" {
			return tok, nil
		}
	}
	if tok := tokenAfterVerify(s); tok != "" {
		return tok, nil
	}
	if strings.Contains(s, verifySegment) {
		return "", ErrEmptyTicket
	}
	tok := strings.Trim(s, "/")
	if tok == "" || strings.ContainsAny(tok, "/ \t\n?#") {
		return "", ErrEmptyTicket
	}
	return tok, nil
}

func tokenAfterVerify(s string) string {
	i := strings.Index(s, verifySegment)
	if i < 0 {
		return ""
	}
	rest := s[i+len(verifySegment):]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
