package enrich

import (
	"net/url"
	"strings"

	"github.com/sells-group/radar-cli/internal/model"
)

const mapsSearchURL = "https://www.google.com/maps/search/"

// Region is the municipality leads are routed within.
type Region struct {
	City  string
	State string
}

// RouteLink builds a map search URL for the company's street address. It
// returns "" when the street is unknown.
func RouteLink(c model.RawCompany, r Region) string {
	if strings.TrimSpace(c.Street) == "" {
		return ""
	}
	var parts []string
	for _, p := range []string{c.Street, c.Number, c.District, r.City, r.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", strings.Join(parts, " "))
	return mapsSearchURL + "?" + q.Encode()
}
