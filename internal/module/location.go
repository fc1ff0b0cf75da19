// SPDX-License-Identifier: MIT
/*
Package module prepares processor code for the real-time side of the
engine. The real-time context cannot fetch or resolve sources itself,
so the controlling context fetches every code location up front,
concatenates them in order into a single unit, and registers the
result under a processor name. Registration is idempotent: preparing
an already-registered name performs zero fetches and returns the
existing module.
*/
package module

import "strings"

// LocationKind discriminates how a CodeLocation is fetched.
type LocationKind int

const (
	// KindURL is an http(s) address fetched over the network.
	KindURL LocationKind = iota
	// KindFile is a local filesystem path.
	KindFile
	// KindInline is an in-memory blob carried in the location itself.
	KindInline
)

// inlinePrefix marks a location whose content follows directly after
// the prefix instead of being fetched.
const inlinePrefix = "inline:"

// CodeLocation is one addressable source forming part of a processor
// module. Concatenation order is the caller's source order.
type CodeLocation struct {
	Ref  string
	Kind LocationKind
}

// ParseLocation classifies a raw source reference.
func ParseLocation(ref string) CodeLocation {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return CodeLocation{Ref: ref, Kind: KindURL}
	case strings.HasPrefix(ref, inlinePrefix):
		return CodeLocation{Ref: ref, Kind: KindInline}
	default:
		return CodeLocation{Ref: ref, Kind: KindFile}
	}
}

// ParseLocations classifies a list of raw references, preserving order.
func ParseLocations(refs []string) []CodeLocation {
	locs := make([]CodeLocation, len(refs))
	for i, ref := range refs {
		locs[i] = ParseLocation(ref)
	}
	return locs
}

// String identifies the location in error messages. Inline blobs are
// abbreviated so errors stay readable.
func (l CodeLocation) String() string {
	if l.Kind == KindInline {
		body := strings.TrimPrefix(l.Ref, inlinePrefix)
		if len(body) > 24 {
			return inlinePrefix + body[:24] + "..."
		}
		return l.Ref
	}
	return l.Ref
}
