package xid

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a random identifier carrying a short type prefix, e.g.
// "sale-3f0c…". An empty prefix yields a bare UUID.
func New(prefix string) string {
	id := uuid.NewString()
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// HasPrefix reports whether id was minted by New with the given prefix.
func HasPrefix(id string, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok {
		return false
	}
	return uuid.Validate(rest) == nil
}
