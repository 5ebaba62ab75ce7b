// Package searchproviders recognizes whether a URL's host and path indicate
// a search engine query (spec.md §2 SearchProviders, §4.6 TestSearchState).
// URL parsing itself is out of scope for the engine — callers pass in the
// host's already-parsed host.URLComponents.
package searchproviders

import (
	"strings"

	"github.com/patrickwarner/adsengine/internal/host"
)

// provider pairs a search-engine hostname suffix with the query-path prefix
// that indicates an actual search (as opposed to, say, the bare homepage).
type provider struct {
	hostSuffix string
	pathPrefix string
}

// knownProviders mirrors the major search engines the original engine
// recognized. A request matches when the URL's host ends in hostSuffix and
// its path starts with pathPrefix (empty prefix matches any path).
var knownProviders = []provider{
	{"google.com", "/search"},
	{"bing.com", "/search"},
	{"search.yahoo.com", ""},
	{"duckduckgo.com", ""},
	{"yandex.com", "/search"},
	{"yandex.ru", "/search"},
	{"baidu.com", "/s"},
	{"ask.com", "/web"},
	{"search.aol.com", ""},
	{"startpage.com", "/sp/search"},
	{"ecosia.org", "/search"},
	{"qwant.com", ""},
	{"search.brave.com", ""},
}

// IsSearchEngine reports whether the given URL components identify a search
// engine results page.
func IsSearchEngine(c host.URLComponents) bool {
	h := strings.ToLower(c.Host)
	p := strings.ToLower(c.Path)
	for _, pr := range knownProviders {
		if !strings.HasSuffix(h, pr.hostSuffix) && h != pr.hostSuffix {
			continue
		}
		if pr.pathPrefix == "" || strings.HasPrefix(p, pr.pathPrefix) {
			return true
		}
	}
	return false
}
