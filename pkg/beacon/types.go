package beacon

import (
	"net/url"
	"strconv"
)

// Markup attributes read by the beacon.
const (
	AttrSiteID     = "site-id"
	AttrUserID     = "user-id"
	AttrEvent      = "pingoo-event"
	AttrEventValue = "pingoo-event-value"
)

// Event types sent by the beacon itself.
const (
	EventPageView = "page_view"
)

// Element is a markup element the beacon can read attributes from.
type Element interface {
	// Attr returns the attribute value and whether the attribute is present.
	Attr(name string) (string, bool)
}

// Node is an Element inside a tree, used to find the tracked ancestor of a
// click target.
type Node interface {
	Element
	// Parent returns the parent element, or nil at the root.
	Parent() Node
}

// Lookup returns the script-like elements of the page in document order.
type Lookup func() []Element

// Config is the beacon configuration discovered from markup. It does not
// change after discovery.
type Config struct {
	Endpoint string
	SiteID   string
	UserID   string
}

// Page describes the page the beacon runs on.
type Page struct {
	// URL is the page location. Its path is reported with every event and
	// relative script sources and endpoints are resolved against it.
	URL          *url.URL
	Referrer     string
	ScreenWidth  int
	ScreenHeight int
}

func (p Page) path() string {
	if p.URL == nil {
		return ""
	}
	if path := p.URL.EscapedPath(); path != "" {
		return path
	}
	return "/"
}

func (p Page) screen() string {
	return strconv.Itoa(p.ScreenWidth) + "x" + strconv.Itoa(p.ScreenHeight)
}

// EventPayload is the body POSTed to the collection endpoint.
type EventPayload struct {
	SessionID  string `json:"session_id"`
	SiteID     string `json:"site_id"`
	UserID     string `json:"user_id"`
	URL        string `json:"url"`
	Referrer   string `json:"referrer"`
	EventType  string `json:"event_type"`
	EventValue string `json:"event_value"`
	Screen     string `json:"screen"`
}
