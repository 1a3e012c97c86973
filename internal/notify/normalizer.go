package notify

import "strings"

// Normalizer maps a channel-specific address to the list of encodings it
// may appear under, canonical form first.  The pending correlation table
// is keyed by the canonical form; resolution tries every candidate so a
// reply arriving under a variant encoding still matches.
type Normalizer func(address string) []string

// Canonical returns the preferred encoding for an address.
func (n Normalizer) Canonical(address string) string {
	c := n(address)
	if len(c) == 0 {
		return strings.TrimSpace(address)
	}
	return c[0]
}

const (
	userSuffix   = "@s.whatsapp.net"
	legacySuffix = "@c.us"
)

// WhatsAppJID normalizes WhatsApp addresses.  A bare phone number becomes
// a user JID; the two historical JID suffixes are treated as equivalent
// encodings of the same number.
func WhatsAppJID(address string) []string {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return nil
	}

	if !strings.Contains(addr, "@") {
		addr = digitsOnly(addr) + userSuffix
	}

	switch {
	case strings.HasSuffix(addr, userSuffix):
		return []string{addr, strings.TrimSuffix(addr, userSuffix) + legacySuffix}
	case strings.HasSuffix(addr, legacySuffix):
		return []string{addr, strings.TrimSuffix(addr, legacySuffix) + userSuffix}
	}
	return []string{addr}
}

// Identity treats every address as already canonical, for transports
// without variant encodings.
func Identity(address string) []string {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return nil
	}
	return []string{addr}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
