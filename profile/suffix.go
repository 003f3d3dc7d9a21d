package profile

import "strings"

// SuffixKind classifies the directional suffix of an activity key.
type SuffixKind int

const (
	SuffixNone SuffixKind = iota
	SuffixGive
	SuffixReceive
	SuffixSelf
	SuffixWatching
)

func (k SuffixKind) String() string {
	switch k {
	case SuffixGive:
		return "give"
	case SuffixReceive:
		return "receive"
	case SuffixSelf:
		return "self"
	case SuffixWatching:
		return "watching"
	default:
		return "none"
	}
}

// Two legacy key pairs predate the suffix convention and must still
// resolve as directional pairs.
var keyAliases = map[string]string{
	"stripping_self":         "watching_strip",
	"watching_strip":         "stripping_self",
	"solo_pleasure_self":     "watching_solo_pleasure",
	"watching_solo_pleasure": "solo_pleasure_self",
}

// ParseKey splits an activity key into its base and suffix kind.
// Aliased legacy keys report the kind of the role they encode.
func ParseKey(key string) (base string, kind SuffixKind) {
	if _, ok := keyAliases[key]; ok {
		if strings.HasPrefix(key, "watching_") {
			return strings.TrimPrefix(key, "watching_"), SuffixWatching
		}
		return strings.TrimSuffix(key, "_self"), SuffixSelf
	}
	switch {
	case strings.HasSuffix(key, "_give"):
		return strings.TrimSuffix(key, "_give"), SuffixGive
	case strings.HasSuffix(key, "_receive"):
		return strings.TrimSuffix(key, "_receive"), SuffixReceive
	case strings.HasSuffix(key, "_self"):
		return strings.TrimSuffix(key, "_self"), SuffixSelf
	case strings.HasSuffix(key, "_watching"):
		return strings.TrimSuffix(key, "_watching"), SuffixWatching
	default:
		return key, SuffixNone
	}
}

// PairedKey returns the complementary key of a directional activity key
// (give<->receive, self<->watching, plus the legacy aliases). ok is
// false when the key carries no directional suffix.
func PairedKey(key string) (paired string, ok bool) {
	if alias, found := keyAliases[key]; found {
		return alias, true
	}
	base, kind := ParseKey(key)
	switch kind {
	case SuffixGive:
		return base + "_receive", true
	case SuffixReceive:
		return base + "_give", true
	case SuffixSelf:
		return base + "_watching", true
	case SuffixWatching:
		return base + "_self", true
	default:
		return "", false
	}
}
