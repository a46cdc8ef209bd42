package format

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// EmailDomain is appended to generated addresses.
const EmailDomain = "@miniticker.com"

// UserEmail derives the default address of a new user from their name:
// "José Peña" becomes "josepena@miniticker.com".
func UserEmail(nombre string) string {
	name := strings.ToLower(strings.TrimSpace(nombre))
	name = strings.Join(strings.Fields(name), "")

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	clean, _, err := transform.String(t, name)
	if err != nil {
		clean = name
	}
	return clean + EmailDomain
}
