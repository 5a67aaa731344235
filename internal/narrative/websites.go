package narrative

import (
	_ "embed"
	"net/url"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SearchURLPrefix is used for names with no known website.
const SearchURLPrefix = "https://www.google.com/search?q="

//go:embed data/websites.yaml
var websitesYAML []byte

var (
	websitesOnce sync.Once
	websites     map[string]string
)

func loadWebsites() map[string]string {
	websitesOnce.Do(func() {
		m := make(map[string]string)
		if err := yaml.Unmarshal(websitesYAML, &m); err != nil {
			panic(eris.Wrap(err, "narrative: parse websites"))
		}
		websites = m
	})
	return websites
}

// ResolveWebsite returns the known website for name, or a search URL for it.
// The result is never empty.
func ResolveWebsite(name string) string {
	if u, ok := loadWebsites()[name]; ok && u != "" {
		return u
	}
	return SearchURLPrefix + url.QueryEscape(name)
}
