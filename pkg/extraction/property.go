package extraction

import "strings"

var propertyPrefixes = []string{"sc-domain:", "https://", "http://"}

// DerivePropertyPattern strips the scheme and "sc-domain:" tokens from a property
// identifier and keeps everything before the first path separator.
//
//	sc-domain:example.it          -> example.it
//	https://www.example.it/shop/  -> www.example.it
func DerivePropertyPattern(property string) string {
	s := property
	for _, p := range propertyPrefixes {
		s = strings.ReplaceAll(s, p, "")
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return s
}
