package storefront_test

import (
	"net/url"
	"strings"
	"testing"

	"jewelcatalog/internal/models"
	"jewelcatalog/internal/storefront"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_AddIsIdempotent(t *testing.T) {
	var sel storefront.Selection
	ring := models.Product{ID: "1", Name: "Ring", Category: "Rings", Price: 100}

	assert.True(t, sel.Add(ring))
	assert.False(t, sel.Add(ring))
	assert.Equal(t, 1, sel.Len())
}

func TestSelection_MatchesByNameAndCategoryWithoutID(t *testing.T) {
	var sel storefront.Selection

	sel.Add(models.Product{Name: "Ring", Category: "Rings"})
	sel.Add(models.Product{ID: "9", Name: "Ring", Category: "Rings"})
	sel.Add(models.Product{Name: "Ring", Category: "Bands"})

	assert.Equal(t, 2, sel.Len())
}

func TestSelection_Remove(t *testing.T) {
	var sel storefront.Selection
	sel.Add(models.Product{ID: "1", Name: "A"})
	sel.Add(models.Product{ID: "2", Name: "B"})
	sel.Add(models.Product{ID: "3", Name: "C"})

	assert.False(t, sel.Remove(3))
	assert.False(t, sel.Remove(-1))
	assert.True(t, sel.Remove(1))
	assert.Equal(t, []string{"1", "3"}, ids(sel.Items()))
}

func TestSelection_Total(t *testing.T) {
	var sel storefront.Selection
	sel.Add(models.Product{ID: "1", Price: 0.1})
	sel.Add(models.Product{ID: "2", Price: 0.2})
	sel.Add(models.Product{ID: "3", PriceMissing: true})

	assert.Equal(t, "0.3", sel.Total().String())
}

func TestComposeEnquiryMessage(t *testing.T) {
	selection := []models.Product{
		{ID: "1", Name: "Necklace X", Category: "Necklaces", Price: 20000},
		{ID: "2", Name: "Ring Y", Category: "Rings", Price: 15000},
	}

	msg := storefront.ComposeEnquiryMessage(selection, "Asha", "")

	assert.Equal(t, "Hi, I'm Asha.\n"+
		"I'd like to enquire about the following items:\n"+
		"1) Necklace X (Necklaces) - ₹20,000\n"+
		"2) Ring Y (Rings) - ₹15,000\n"+
		"Estimated total: ₹35,000\n"+
		"Please share availability and final pricing. Thank you!", msg)
	assert.True(t, strings.HasSuffix(msg, storefront.EnquiryClosingLine))
}

func TestComposeEnquiryMessage_DefaultsAndDescriptors(t *testing.T) {
	selection := []models.Product{
		{ID: "1", Name: "Jhumka", Category: "Earrings", Price: 12500, MetalType: "Gold 18K", WeightRange: "8-10g"},
	}

	msg := storefront.ComposeEnquiryMessage(selection, "  ", "98765 43210")

	lines := strings.Split(msg, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Hi, I'm Customer.", lines[0])
	assert.Equal(t, "Phone: 98765 43210", lines[1])
	assert.Equal(t, "1) Jhumka (Earrings) - ₹12,500 | Metal: Gold 18K | Weight: 8-10g", lines[3])
}

func TestComposeProductMessage(t *testing.T) {
	msg := storefront.ComposeProductMessage("Guru Ji Jewellers", models.Product{Name: "Ruby Ring", Category: "Rings", Price: 8000})

	assert.Equal(t, `Hi Guru Ji Jewellers, I want details about "Ruby Ring" (Category: Rings, Price: ₹8,000).`, msg)
}

func TestEnquiryLink(t *testing.T) {
	link := storefront.EnquiryLink("+91 81218-150139", "Hi there & more\n1) Ring")

	assert.Equal(t, "https://wa.me/9181218150139?text=Hi%20there%20%26%20more%0A1%29%20Ring", link)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Hi there & more\n1) Ring", parsed.Query().Get("text"))
}
