package portrait

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// FreshnessParam is the query parameter carrying the cache-busting token.
const FreshnessParam = "_t"

// Query parameters treated as freshness tokens when stripping.
var freshnessParams = []string{"_t", "t", "ts", "cb"}

// StripFreshness removes cache-busting tokens from u. The result is the key
// under which failures are remembered. Only the query pairs are touched; the
// rest of u is kept byte for byte so it matches the candidate it came from.
func StripFreshness(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "data:") {
		return u
	}
	base, query, ok := strings.Cut(u, "?")
	if !ok {
		return u
	}
	query, fragment, hasFragment := strings.Cut(query, "#")

	kept := make([]string, 0, strings.Count(query, "&")+1)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" || isFreshnessPair(pair) {
			continue
		}
		kept = append(kept, pair)
	}
	out := base
	if len(kept) > 0 {
		out += "?" + strings.Join(kept, "&")
	}
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

func isFreshnessPair(pair string) bool {
	name, _, _ := strings.Cut(pair, "=")
	if unescaped, err := url.QueryUnescape(name); err == nil {
		name = unescaped
	}
	return slices.Contains(freshnessParams, name)
}

func (r *Resolver) decorate(u string) string {
	if !r.cacheBusting || u == r.placeholder {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + FreshnessParam + "=" + strconv.FormatInt(r.now().UnixMilli(), 10)
}
