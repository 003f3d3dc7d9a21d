package game

import "regexp"

// partnerPattern matches the "your partner" placeholder in bank
// scripts, case-insensitively and word-bounded.
var partnerPattern = regexp.MustCompile(`(?i)\byour partner\b`)

// ResolveText substitutes the secondary player's name into an
// instruction string. The resolved text, not the template, is what gets
// stored on the turn entry.
func ResolveText(text, secondaryName string) string {
	if text == "" {
		return ""
	}
	return partnerPattern.ReplaceAllString(text, secondaryName)
}
