package core

import (
	"net/url"
	"unicode/utf8"

	"github.com/ipfs/go-cid"
)

// IsString reports whether s is valid UTF-8.
func IsString(s string) bool {
	return utf8.ValidString(s)
}

// IsNonEmptyString reports whether s is valid UTF-8, not empty and at most
// max bytes long.
func IsNonEmptyString(s string, max int) bool {
	return s != "" && len(s) <= max && IsString(s)
}

// IsURL reports whether s parses as an absolute URL within MaxURLSize bytes.
// A scheme is required; "example.com" is rejected.
func IsURL(s string) bool {
	if s == "" || len(s) > MaxURLSize || !IsString(s) {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return false
	}
	if hostSchemes[u.Scheme] {
		return u.Host != ""
	}
	return true
}

// hostSchemes cannot be used without a host. file URLs may omit it.
var hostSchemes = map[string]bool{
	"http": true, "https": true, "ws": true, "wss": true, "ftp": true,
}

// IsCID reports whether s is a parseable content identifier, either a
// base58 CIDv0 ("Qm...") or a multibase CIDv1 ("bafy...").
func IsCID(s string) bool {
	if s == "" || len(s) > MaxCIDSize {
		return false
	}
	_, err := cid.Decode(s)
	return err == nil
}
