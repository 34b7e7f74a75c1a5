package cache

import (
	"net/url"
	"strings"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
)

// FilterKey builds a stable key for an aggregate endpoint and its filter. Values are
// query-escaped so no category or region can forge the delimiters.
func FilterKey(endpoint string, f metric.Filter) string {
	var b strings.Builder

	b.WriteString(endpoint)
	b.WriteString(":v2")
	b.WriteString(":from=")
	if f.From != nil {
		b.WriteString(f.From.String())
	}
	b.WriteString(":to=")
	if f.To != nil {
		b.WriteString(f.To.String())
	}
	b.WriteString(":category=")
	if f.Category != nil {
		b.WriteString(url.QueryEscape(*f.Category))
	}
	b.WriteString(":region=")
	if f.Region != nil {
		b.WriteString(url.QueryEscape(*f.Region))
	}

	return b.String()
}
