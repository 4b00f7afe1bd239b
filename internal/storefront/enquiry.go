package storefront

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"jewelcatalog/internal/models"

	"github.com/shopspring/decimal"
)

// Enquiry message defaults.
const (
	DefaultCustomerName = "Customer"
	EnquiryClosingLine  = "Please share availability and final pricing. Thank you!"
	deepLinkBase        = "https://wa.me/"
)

// Selection is an ordered enquiry list without duplicates. The zero value is
// empty and ready to use.
type Selection struct {
	items []models.Product
}

func sameProduct(a, b models.Product) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Name == b.Name && a.Category == b.Category
}

// Add appends p unless it is already selected and reports whether it was
// added.
func (s *Selection) Add(p models.Product) bool {
	for _, existing := range s.items {
		if sameProduct(existing, p) {
			return false
		}
	}
	s.items = append(s.items, p)
	return true
}

// Remove drops the item at index i. Out of range indexes are ignored.
func (s *Selection) Remove(i int) bool {
	if i < 0 || i >= len(s.items) {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Len returns the number of selected products.
func (s *Selection) Len() int {
	return len(s.items)
}

// Items returns a copy of the selected products.
func (s *Selection) Items() []models.Product {
	out := make([]models.Product, len(s.items))
	copy(out, s.items)
	return out
}

// Total sums the selected prices.
func (s *Selection) Total() decimal.Decimal {
	return SumPrices(s.items)
}

// SumPrices adds prices without float drift; missing prices count as zero.
func SumPrices(products []models.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		if p.PriceMissing {
			continue
		}
		total = total.Add(decimal.NewFromFloat(p.Price))
	}
	return total
}

// ComposeEnquiryMessage builds the multi-line enquiry for the selected
// products. A blank customer name falls back to DefaultCustomerName and a blank
// phone is left out.
func ComposeEnquiryMessage(selection []models.Product, customerName, customerPhone string) string {
	name := strings.TrimSpace(customerName)
	if name == "" {
		name = DefaultCustomerName
	}

	var b strings.Builder
	b.WriteString("Hi, I'm " + name + ".\n")
	if phone := strings.TrimSpace(customerPhone); phone != "" {
		b.WriteString("Phone: " + phone + "\n")
	}
	b.WriteString("I'd like to enquire about the following items:\n")
	for i, p := range selection {
		b.WriteString(strconv.Itoa(i+1) + ") " + p.Name + " (" + p.Category + ") - " + FormatPrice(price(p)))
		if metal := strings.TrimSpace(p.MetalType); metal != "" {
			b.WriteString(" | Metal: " + metal)
		}
		if weight := strings.TrimSpace(p.WeightRange); weight != "" {
			b.WriteString(" | Weight: " + weight)
		}
		b.WriteString("\n")
	}
	if len(selection) > 1 {
		b.WriteString("Estimated total: " + FormatPrice(SumPrices(selection).InexactFloat64()) + "\n")
	}
	b.WriteString(EnquiryClosingLine)
	return b.String()
}

// ComposeProductMessage builds the quick enquiry for a single product.
func ComposeProductMessage(shopName string, p models.Product) string {
	return "Hi " + shopName + `, I want details about "` + p.Name + `" (Category: ` + p.Category + ", Price: " + FormatPrice(price(p)) + ")."
}

// EnquiryLink returns the messaging deep link that opens a chat with number
// pre-filled with message. Non-digits are stripped from number.
func EnquiryLink(number, message string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, number)
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return deepLinkBase + digits + "?text=" + text
}
