package providers

import (
	"strings"

	"sos-expat/backend/internal/utils"
)

// MatchesSearch is the client-side text filter of the admin list: every
// whitespace-separated term must appear in one of name, email, phone,
// country or city, ignoring case and accents.
func MatchesSearch(p Provider, q string) bool {
	q = utils.Fold(q)
	if q == "" {
		return true
	}
	hay := utils.Fold(strings.Join([]string{
		p.FirstName, p.LastName, p.FullName, p.Email, p.Country, p.City,
	}, " "))
	phone := digits(p.Phone)

	for _, term := range strings.Fields(q) {
		if strings.Contains(hay, term) {
			continue
		}
		if d := digits(term); d != "" && d == strings.TrimLeft(term, "+") && strings.Contains(phone, d) {
			continue
		}
		return false
	}
	return true
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
