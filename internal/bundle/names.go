package bundle

import "golang.org/x/text/unicode/norm"

// NormalizeName returns the NFC normalization of an entity name.
// Names arriving in bundle documents and names stored on the target may
// differ in Unicode composition; all name comparison goes through this
// function so "é" matches "é" regardless of how either was encoded.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
