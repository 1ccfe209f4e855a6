package authcore

import (
	"regexp"
	"strings"
)

// IdentifierKind classifies a login identifier.
type IdentifierKind uint8

const (
	// IdentifierEmail marks identifiers containing an @.
	IdentifierEmail IdentifierKind = iota
	// IdentifierUsername marks all other identifiers.
	IdentifierUsername
)

const minUsernameLength = 3

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Identifier is a resolved, normalized login identifier. Value is lowercased
// so provider lookups are case-insensitive by construction.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// ResolveIdentifier classifies raw input by the presence of an @: email
// inputs must match a standard syntax pattern, username inputs must be at
// least three characters.
func ResolveIdentifier(input string) (Identifier, error) {
	trimmed := strings.TrimSpace(input)

	if strings.ContainsRune(trimmed, '@') {
		if !emailPattern.MatchString(trimmed) {
			return Identifier{}, ErrInvalidIdentifier
		}
		return Identifier{Kind: IdentifierEmail, Value: strings.ToLower(trimmed)}, nil
	}

	if len(trimmed) < minUsernameLength {
		return Identifier{}, ErrInvalidIdentifier
	}
	return Identifier{Kind: IdentifierUsername, Value: strings.ToLower(trimmed)}, nil
}

// EmailDomain returns the part after the last @ of an email identifier,
// empty for usernames.
func (i Identifier) EmailDomain() string {
	if i.Kind != IdentifierEmail {
		return ""
	}
	at := strings.LastIndexByte(i.Value, '@')
	return i.Value[at+1:]
}
