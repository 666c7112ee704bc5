package beacon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_ScriptsInOrder(t *testing.T) {
	doc := parseDoc(t, `<head><script src="/a.js"></script></head>
<body><script src="/b.js" SITE-ID="x"></script><div><script>inline()</script></div></body>`)

	scripts := doc.Scripts()
	require.Len(t, scripts, 3)

	src, ok := scripts[0].Attr("src")
	assert.True(t, ok)
	assert.Equal(t, "/a.js", src)

	// Attribute names are case-insensitive in HTML.
	site, ok := scripts[1].Attr(AttrSiteID)
	assert.True(t, ok)
	assert.Equal(t, "x", site)

	_, ok = scripts[2].Attr("src")
	assert.False(t, ok)
}

func TestDocument_ByID(t *testing.T) {
	doc := parseDoc(t, trackedPage)

	n, ok := doc.ByID("signup")
	require.True(t, ok)
	v, _ := n.Attr(AttrEventValue)
	assert.Equal(t, "hero", v)

	_, ok = doc.ByID("nope")
	assert.False(t, ok)
}

func TestElement_ParentStopsAtDocument(t *testing.T) {
	doc := parseDoc(t, `<html><body><p id="p">x</p></body></html>`)

	n, ok := doc.ByID("p")
	require.True(t, ok)

	var chain int
	for n != nil {
		chain++
		n = n.Parent()
	}
	// p, body, html
	assert.Equal(t, 3, chain)
}

func TestClosest(t *testing.T) {
	doc := parseDoc(t, trackedPage)

	label, ok := doc.ByID("signup-label")
	require.True(t, ok)

	tracked := Closest(label, AttrEvent)
	require.NotNil(t, tracked)
	id, _ := tracked.Attr("id")
	assert.Equal(t, "signup", id)

	plain, ok := doc.ByID("plain")
	require.True(t, ok)
	assert.Nil(t, Closest(plain, AttrEvent))
	assert.Nil(t, Closest(nil, AttrEvent))
}
