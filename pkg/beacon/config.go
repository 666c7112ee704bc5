package beacon

import (
	"net/url"
	"strings"
)

const (
	sendPath = "/send"
	// FallbackEndpoint is used when the declaring element's source cannot be
	// turned into an absolute URL.
	FallbackEndpoint = sendPath
)

// Discover returns the configuration of the first element carrying a
// non-empty site-id. Later matching elements are ignored. ok is false when
// no element matches.
func Discover(lookup Lookup, page *url.URL) (cfg Config, ok bool) {
	if lookup == nil {
		return Config{}, false
	}

	for _, el := range lookup() {
		siteID, _ := el.Attr(AttrSiteID)
		if siteID == "" {
			continue
		}

		src, _ := el.Attr("src")
		userID, _ := el.Attr(AttrUserID)
		return Config{
			Endpoint: endpointFor(src, page),
			SiteID:   siteID,
			UserID:   userID,
		}, true
	}

	return Config{}, false
}

// endpointFor derives the collection endpoint from the origin of the
// script source.
func endpointFor(src string, page *url.URL) string {
	// URL attributes are read with surrounding whitespace stripped.
	src = strings.Trim(src, "\t\n\f\r ")
	if src == "" {
		return FallbackEndpoint
	}

	u, err := url.Parse(src)
	if err != nil {
		return FallbackEndpoint
	}
	if !u.IsAbs() && page != nil {
		u = page.ResolveReference(u)
	}
	if u.Scheme == "" || u.Host == "" {
		return FallbackEndpoint
	}

	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: sendPath}).String()
}
