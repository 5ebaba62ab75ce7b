package searchproviders

import (
	"testing"

	"github.com/patrickwarner/adsengine/internal/host"
	"github.com/stretchr/testify/assert"
)

func TestIsSearchEngine(t *testing.T) {
	cases := []struct {
		name string
		c    host.URLComponents
		want bool
	}{
		{"google search", host.URLComponents{Host: "www.google.com", Path: "/search"}, true},
		{"google homepage", host.URLComponents{Host: "www.google.com", Path: "/"}, false},
		{"bing search", host.URLComponents{Host: "www.bing.com", Path: "/search"}, true},
		{"duckduckgo any path", host.URLComponents{Host: "duckduckgo.com", Path: "/?q=foo"}, true},
		{"unrelated site", host.URLComponents{Host: "example.com", Path: "/search"}, false},
		{"case insensitive", host.URLComponents{Host: "WWW.GOOGLE.COM", Path: "/SEARCH"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSearchEngine(tc.c))
		})
	}
}
