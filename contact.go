package carrier

import (
	"strings"

	"github.com/synqronlabs/carrier/utils"
)

// Contact is a single mailbox, optionally with a display name.
type Contact struct {
	// Address is the bare email address. Required.
	Address string

	// Name is the optional display name.
	Name string
}

// Validate checks that the address is non-empty.
func (c Contact) Validate() error {
	if c.Address == "" {
		return ErrEmptyAddress
	}
	return nil
}

// HeaderValue renders the contact for use in a message header:
// `"escaped-name" <addr>` when a display name is present, the bare
// address otherwise. Double quotes inside the name are backslash-escaped;
// non-ASCII names are RFC 2047 encoded.
func (c Contact) HeaderValue() string {
	if c.Name == "" {
		return c.Address
	}
	name := c.Name
	if utils.ContainsNonASCII(name) {
		name = utils.EncodeRFC2047(name)
	} else {
		name = `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
	}
	return name + " <" + c.Address + ">"
}

// domainTail returns the address from the first '@' to the end,
// including the '@'. Empty when the address has no '@'.
func (c Contact) domainTail() string {
	if i := strings.IndexByte(c.Address, '@'); i >= 0 {
		return c.Address[i:]
	}
	return ""
}

// joinContacts renders a comma-space separated header value.
func joinContacts(contacts []Contact) string {
	parts := make([]string, len(contacts))
	for i, c := range contacts {
		parts[i] = c.HeaderValue()
	}
	return strings.Join(parts, ", ")
}
