// Package storefront is the browsing side of the catalog: it loads the product
// list once per session, filters, sorts and renders it, and turns an enquiry
// selection into a messaging deep link.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jewelcatalog/internal/models"
)

// State is the lifecycle of a Session.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrLoadFailed is returned by Load once the catalog failed to load; the
	// session stays failed until it is replaced.
	ErrLoadFailed = errors.New("catalog failed to load")
	// ErrAlreadyLoaded is returned by Load on a ready session.
	ErrAlreadyLoaded = errors.New("catalog already loaded")
	// ErrLoadInProgress is returned by Load while another load is running.
	ErrLoadInProgress = errors.New("catalog load in progress")
	// ErrSessionClosed is returned once Close has been called.
	ErrSessionClosed = errors.New("session closed")
)

// Default deployment values.
const (
	DefaultWhatsAppNumber = "9181218150139"
	DefaultShopName       = "Guru Ji Jewellers"
)

// Config holds per-deployment storefront settings.
type Config struct {
	WhatsAppNumber   string
	ShopName         string
	PlaceholderImage string
	Locale           string
}

func (c Config) withDefaults() Config {
	if c.WhatsAppNumber == "" {
		c.WhatsAppNumber = DefaultWhatsAppNumber
	}
	if c.ShopName == "" {
		c.ShopName = DefaultShopName
	}
	if c.PlaceholderImage == "" {
		c.PlaceholderImage = PlaceholderImage
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	return c
}

// Session owns the state of one storefront visit. It is safe for concurrent
// use.
type Session struct {
	fetcher  Fetcher
	cfg      Config
	renderer *Renderer

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	closed     bool
	loadErr    error

	products   []models.Product
	categories []string
	priceRange PriceRange
	category   string
	metalType  string
	search     string
	sortKey    SortKey
	selection  Selection
}

// NewSession creates an empty session.
func NewSession(fetcher Fetcher, cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		fetcher:  fetcher,
		cfg:      cfg,
		renderer: NewRenderer(cfg.PlaceholderImage, cfg.Locale),
		state:    StateEmpty,
		category: AllCategories,
		sortKey:  SortNone,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the load error of a failed session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Load fetches the catalog once. On success the category options and price
// bounds are derived; on failure the session becomes terminally failed. A
// result that arrives after Close is discarded.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	switch s.state {
	case StateFailed:
		s.mu.Unlock()
		return ErrLoadFailed
	case StateReady:
		s.mu.Unlock()
		return ErrAlreadyLoaded
	case StateLoading:
		s.mu.Unlock()
		return ErrLoadInProgress
	}
	s.state = StateLoading
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	products, err := s.fetcher.FetchProducts(ctx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		return ErrSessionClosed
	}
	s.cancel = nil

	if err != nil {
		s.state = StateFailed
		s.loadErr = err
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	if products == nil {
		products = []models.Product{}
	}
	s.products = products
	s.categories = DeriveCategoryOptions(products)
	s.priceRange = NewPriceRange(DerivePriceBounds(products))
	s.state = StateReady
	return nil
}

// Close discards the session and cancels a running load.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Products returns a copy of the loaded catalog.
func (s *Session) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// CategoryOptions returns the category selector values.
func (s *Session) CategoryOptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.categories...)
}

// PriceRange returns the current price filter.
func (s *Session) PriceRange() PriceRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priceRange
}

// SetCategory selects a category; "all" or blank shows every category.
func (s *Session) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category == "" {
		category = AllCategories
	}
	s.category = category
}

// SetMetalType filters on the metal type; "all" or blank disables it.
func (s *Session) SetMetalType(metal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metalType = metal
}

// SetSearch filters on a name or category substring.
func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = text
}

// SetPriceMin moves the lower price handle.
func (s *Session) SetPriceMin(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priceRange.SetMin(v)
}

// SetPriceMax moves the upper price handle.
func (s *Session) SetPriceMax(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priceRange.SetMax(v)
}

// SetSort changes the ordering.
func (s *Session) SetSort(key SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortKey = key
}

// Criteria returns the active filter. Price handles resting on their bounds
// are inactive, so products priced outside the derived bounds stay visible.
func (s *Session) Criteria() Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria()
}

func (s *Session) criteria() Criteria {
	c := Criteria{Category: s.category, MetalType: s.metalType, Search: s.search}
	if s.priceRange.LowerActive() {
		c.PriceMin = Limit(s.priceRange.Min())
	}
	if s.priceRange.UpperActive() {
		c.PriceMax = Limit(s.priceRange.Max())
	}
	return c
}

// Visible returns the filtered and sorted products.
func (s *Session) Visible() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Sort(Filter(s.products, s.criteria()), s.sortKey)
}

// View describes what the storefront shows in its current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v View
	switch s.state {
	case StateReady:
		v = s.renderer.Render(Sort(Filter(s.products, s.criteria()), s.sortKey))
		v.Categories = categoryOptions(s.categories)
		v.PriceRange = s.priceRange
	case StateFailed:
		v = View{State: StateFailed, Failed: true, Message: MessageLoadFailed}
	default:
		v = View{State: s.state, Message: MessageLoading}
	}
	v.Enquiry = EnquirySummary{
		Count: s.selection.Len(),
		Total: s.renderer.FormatPrice(s.selection.Total().InexactFloat64()),
	}
	return v
}

// AddToEnquiry selects p; selecting the same product again has no effect.
func (s *Session) AddToEnquiry(p models.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Add(p)
}

// RemoveFromEnquiry removes the selected product at index i; out of range
// indexes are ignored.
func (s *Session) RemoveFromEnquiry(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Remove(i)
}

// Enquiry returns the selected products.
func (s *Session) Enquiry() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Items()
}

// EnquiryMessage composes the message for the current selection and the deep
// link that sends it to the shop.
func (s *Session) EnquiryMessage(customerName, customerPhone string) (message, link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message = ComposeEnquiryMessage(s.selection.Items(), customerName, customerPhone)
	return message, EnquiryLink(s.cfg.WhatsAppNumber, message)
}

// ProductLink returns the quick enquiry deep link for a single product.
func (s *Session) ProductLink(p models.Product) string {
	return EnquiryLink(s.cfg.WhatsAppNumber, ComposeProductMessage(s.cfg.ShopName, p))
}
