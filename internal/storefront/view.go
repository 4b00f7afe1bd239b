package storefront

import (
	"fmt"
	"math"
	"strings"

	"jewelcatalog/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PlaceholderImage is shown for products without an image.
const PlaceholderImage = "https://via.placeholder.com/400x300?text=Jewellery"

// CurrencySymbol prefixes every rendered price.
const CurrencySymbol = "₹"

// DefaultLocale drives digit grouping of prices.
const DefaultLocale = "en-IN"

// View messages.
const (
	MessageNoProducts = "No products found."
	MessageLoadFailed = "Unable to load products. Please refresh the page."
	MessageLoading    = "Loading products..."
)

// Card is the rendered form of one product.
type Card struct {
	ID               string
	Name             string
	Category         string
	Image            string
	Price            string
	Stars            string
	RatingLabel      string
	ShortDescription string
	Description      string
	Badges           []string
	Descriptors      []string
}

// CategoryOption is one entry of the category selector.
type CategoryOption struct {
	Value string
	Label string
}

// EnquirySummary describes the current enquiry selection.
type EnquirySummary struct {
	Count int
	Total string
}

// View is a display-independent description of the storefront.
type View struct {
	State      State
	Cards      []Card
	Empty      bool
	Failed     bool
	Message    string
	Categories []CategoryOption
	PriceRange PriceRange
	Enquiry    EnquirySummary
}

// Renderer turns products into cards.
type Renderer struct {
	placeholder string
	printer     *message.Printer
}

// NewRenderer creates a Renderer. Blank arguments take the package defaults.
func NewRenderer(placeholder, locale string) *Renderer {
	if placeholder == "" {
		placeholder = PlaceholderImage
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Renderer{placeholder: placeholder, printer: message.NewPrinter(tag)}
}

var defaultRenderer = NewRenderer(PlaceholderImage, DefaultLocale)

// Render describes list with the default renderer.
func Render(list []models.Product) View {
	return defaultRenderer.Render(list)
}

// FormatPrice renders an amount with the currency symbol and grouping, for
// example ₹45,900.
func FormatPrice(v float64) string {
	return defaultRenderer.FormatPrice(v)
}

// Render describes list. An empty list yields the "no products" message, never
// the load failure one.
func (r *Renderer) Render(list []models.Product) View {
	v := View{State: StateReady, Cards: make([]Card, 0, len(list))}
	for _, p := range list {
		v.Cards = append(v.Cards, r.Card(p))
	}
	if len(v.Cards) == 0 {
		v.Empty = true
		v.Message = MessageNoProducts
	}
	return v
}

// Card renders one product.
func (r *Renderer) Card(p models.Product) Card {
	image := strings.TrimSpace(p.Image)
	if image == "" {
		image = r.placeholder
	}
	return Card{
		ID:               p.ID,
		Name:             p.Name,
		Category:         p.Category,
		Image:            image,
		Price:            r.FormatPrice(p.Price),
		Stars:            RenderStars(p.Rating),
		RatingLabel:      fmt.Sprintf("%.1f", p.Rating),
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Badges:           badges(p),
		Descriptors:      descriptors(p),
	}
}

// FormatPrice renders an amount with the currency symbol and locale grouping.
func (r *Renderer) FormatPrice(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return CurrencySymbol + r.printer.Sprintf("%d", int64(v))
	}
	return CurrencySymbol + r.printer.Sprintf("%.2f", v)
}

// RenderStars draws a five-slot star bar for a rating rounded to the nearest
// whole star.
func RenderStars(rating float64) string {
	full := int(math.Round(rating))
	if full < 0 || math.IsNaN(rating) {
		full = 0
	}
	if full > 5 {
		full = 5
	}
	return strings.Repeat("★", full) + strings.Repeat("☆", 5-full)
}

// CategoryLabel is the display label of a category option.
func CategoryLabel(value string) string {
	if value == AllCategories {
		return "All Types"
	}
	return value
}

func categoryOptions(values []string) []CategoryOption {
	out := make([]CategoryOption, 0, len(values))
	for _, v := range values {
		out = append(out, CategoryOption{Value: v, Label: CategoryLabel(v)})
	}
	return out
}

func badges(p models.Product) []string {
	var out []string
	if b := strings.TrimSpace(p.Badge); b != "" {
		out = append(out, b)
	}
	if p.IsNew {
		out = append(out, "New")
	}
	if p.IsBestSeller {
		out = append(out, "Best Seller")
	}
	if p.HasOffer {
		out = append(out, "Offer")
	}
	if p.IsCustomisable {
		out = append(out, "Customisable")
	}
	return out
}

func descriptors(p models.Product) []string {
	var out []string
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, label+": "+value)
		}
	}
	add("Metal", p.MetalType)
	add("Weight", p.WeightRange)
	add("Making charges", p.MakingChargesNote)
	add("Delivery", p.DeliveryInfo)
	return out
}
