package scraper

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardHTML = `
<div class="card">
	<h3 class="fancy-title">Sea View Apartment</h3>
	<span class="price-display">R 2,500</span>
	<a class="detail" href="/rooms/42">view</a>
	<span aria-label="4.8 out of 5 average rating"></span>
</div>`

func TestExtractFieldCascadeOrder(t *testing.T) {
	doc, err := ParseDoc(cardHTML)
	require.NoError(t, err)
	card := doc.Find(".card")

	// First matching candidate wins.
	got := ExtractField(card, []FieldLocator{
		{Selector: ".missing-title"},
		{Selector: "h3"},
		{Selector: ".price-display"},
	})
	assert.Equal(t, "Sea View Apartment", got)
}

func TestExtractFieldAttrAndPattern(t *testing.T) {
	doc, err := ParseDoc(cardHTML)
	require.NoError(t, err)
	card := doc.Find(".card")

	href := ExtractField(card, []FieldLocator{
		{Selector: "a.detail", Attr: "href"},
	})
	assert.Equal(t, "/rooms/42", href)

	rating := ExtractField(card, []FieldLocator{
		{Selector: `[aria-label*="out of 5"]`, Attr: "aria-label", Pattern: regexp.MustCompile(`([\d.]+)\s*out of 5`)},
	})
	assert.Equal(t, "4.8", rating)
}

func TestExtractFieldPatternMissFallsThrough(t *testing.T) {
	doc, err := ParseDoc(cardHTML)
	require.NoError(t, err)
	card := doc.Find(".card")

	// A candidate whose pattern misses must not shadow a later candidate.
	got := ExtractField(card, []FieldLocator{
		{Selector: "h3", Pattern: regexp.MustCompile(`(\d+) bedrooms`)},
		{Selector: ".price-display"},
	})
	assert.Equal(t, "R 2,500", got)
}

func TestExtractFieldAllMiss(t *testing.T) {
	doc, err := ParseDoc(cardHTML)
	require.NoError(t, err)

	got := ExtractField(doc.Find(".card"), []FieldLocator{
		{Selector: ".nope"},
		{Selector: ".also-nope", Attr: "href"},
	})
	assert.Empty(t, got)
}

func TestAbsURL(t *testing.T) {
	assert.Equal(t, "https://www.airbnb.com/rooms/42",
		AbsURL("https://www.airbnb.com/", "/rooms/42"))
	assert.Equal(t, "https://example.com/x",
		AbsURL("https://www.airbnb.com/", "https://example.com/x"))
	assert.Empty(t, AbsURL("https://www.airbnb.com/", ""))
}
