package dedup

import (
	"net/url"
	"strings"
)

var trackingParams = map[string]struct{}{
	"gclid":  {},
	"fbclid": {},
	"igshid": {},
	"mc_cid": {},
	"mc_eid": {},
	"ref":    {},
}

// CanonicalURL normalizes an article link into its deduplication form.
// Two links are duplicates iff their canonical forms are byte-equal.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")

	path := parsed.EscapedPath()
	path = strings.TrimRight(path, "/")

	var b strings.Builder
	b.Grow(len(raw))
	if parsed.Scheme != "" {
		b.WriteString(parsed.Scheme)
		b.WriteString("://")
	} else {
		b.WriteString("//")
	}
	b.WriteString(host)
	b.WriteString(path)

	if query := filterQuery(parsed.RawQuery); query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}

	return b.String()
}

// filterQuery drops tracking pairs and keeps the rest verbatim, in their original order.
func filterQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	pairs := strings.Split(rawQuery, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if isTracking(strings.ToLower(key)) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func isTracking(key string) bool {
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}
