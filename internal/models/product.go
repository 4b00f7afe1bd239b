package models

import (
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// DefaultRating is shown for products that carry no usable rating.
const DefaultRating = 4.8

// Product represents a catalog item in its canonical shape.
type Product struct {
	ID                string  `json:"id"`
	Name              string  `json:"name" validate:"required"`
	Category          string  `json:"category" validate:"required"`
	Price             float64 `json:"price" validate:"gte=0"`
	Rating            float64 `json:"rating"`
	Image             string  `json:"image"`
	ShortDescription  string  `json:"shortDescription"`
	Description       string  `json:"description"`
	MetalType         string  `json:"metalType,omitempty"`
	WeightRange       string  `json:"weightRange,omitempty"`
	MakingChargesNote string  `json:"makingChargesNote,omitempty"`
	DeliveryInfo      string  `json:"deliveryInfo,omitempty"`
	Badge             string  `json:"badge,omitempty"`
	IsNew             bool    `json:"isNew,omitempty"`
	IsBestSeller      bool    `json:"isBestSeller,omitempty"`
	HasOffer          bool    `json:"hasOffer,omitempty"`
	IsCustomisable    bool    `json:"isCustomisable,omitempty"`

	// PriceMissing is set when the source record had no numeric price.
	PriceMissing bool `json:"-"`
}

// RawProduct is a product record as found in storage or an external feed,
// before aliases are resolved and loose values are coerced.
type RawProduct struct {
	ID                string      `mapstructure:"id"`
	Name              string      `mapstructure:"name"`
	Category          string      `mapstructure:"category"`
	Price             interface{} `mapstructure:"price"`
	Rating            interface{} `mapstructure:"rating"`
	Image             string      `mapstructure:"image"`
	ShortDescription  string      `mapstructure:"shortDescription"`
	Description       string      `mapstructure:"description"`
	MetalType         string      `mapstructure:"metalType"`
	Metal             string      `mapstructure:"metal"`
	WeightRange       string      `mapstructure:"weightRange"`
	Weight            string      `mapstructure:"weight"`
	MakingChargesNote string      `mapstructure:"makingChargesNote"`
	MakingCharges     string      `mapstructure:"makingCharges"`
	DeliveryInfo      string      `mapstructure:"deliveryInfo"`
	Badge             string      `mapstructure:"badge"`
	IsNew             interface{} `mapstructure:"isNew"`
	IsBestSeller      interface{} `mapstructure:"isBestSeller"`
	HasOffer          interface{} `mapstructure:"hasOffer"`
	IsCustomisable    interface{} `mapstructure:"isCustomisable"`
}

// Normalize resolves field aliases and coerces loose values into a Product.
func (r RawProduct) Normalize() Product {
	p := Product{
		ID:                strings.TrimSpace(r.ID),
		Name:              strings.TrimSpace(r.Name),
		Category:          strings.TrimSpace(r.Category),
		Image:             strings.TrimSpace(r.Image),
		ShortDescription:  r.ShortDescription,
		Description:       r.Description,
		MetalType:         firstNonBlank(r.MetalType, r.Metal),
		WeightRange:       firstNonBlank(r.WeightRange, r.Weight),
		MakingChargesNote: firstNonBlank(r.MakingChargesNote, r.MakingCharges),
		DeliveryInfo:      strings.TrimSpace(r.DeliveryInfo),
		Badge:             strings.TrimSpace(r.Badge),
		IsNew:             ParseFlag(r.IsNew),
		IsBestSeller:      ParseFlag(r.IsBestSeller),
		HasOffer:          ParseFlag(r.HasOffer),
		IsCustomisable:    ParseFlag(r.IsCustomisable),
		Rating:            ParseRating(r.Rating),
	}

	if price, ok := ParsePrice(r.Price); ok {
		p.Price = price
	} else {
		p.PriceMissing = true
	}
	return p
}

// ParsePrice coerces a loosely typed price. Blank, non-numeric, non-finite
// and negative values are reported as not ok.
func ParsePrice(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if s, isString := v.(string); isString {
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		if s == "" {
			return 0, false
		}
		v = s
	}
	price, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, false
	}
	return price, true
}

// ParseRating coerces a loosely typed rating, falling back to DefaultRating.
func ParseRating(v interface{}) float64 {
	if v == nil {
		return DefaultRating
	}
	if s, isString := v.(string); isString {
		if s = strings.TrimSpace(s); s == "" {
			return DefaultRating
		}
		v = s
	}
	rating, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
		return DefaultRating
	}
	return rating
}

// ParseFlag reads spreadsheet and form style booleans ("TRUE", "1", true).
func ParseFlag(v interface{}) bool {
	if s, isString := v.(string); isString {
		v = strings.TrimSpace(s)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var looseJSON = jsoniter.Config{UseNumber: true}.Froze()

// DecodeProducts decodes a JSON array of loosely shaped product records and
// normalizes each one. An empty payload decodes to an empty catalog.
func DecodeProducts(data []byte) ([]Product, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Product{}, nil
	}

	var records []map[string]interface{}
	if err := looseJSON.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode product list: %w", err)
	}

	products := make([]Product, 0, len(records))
	for i, record := range records {
		var raw RawProduct
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &raw,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build decoder: %w", err)
		}
		if err := decoder.Decode(record); err != nil {
			return nil, fmt.Errorf("failed to decode product at index %d: %w", i, err)
		}
		products = append(products, raw.Normalize())
	}
	return products, nil
}

// EncodeProducts renders the catalog as indented JSON, the persisted layout.
func EncodeProducts(products []Product) ([]byte, error) {
	if products == nil {
		products = []Product{}
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(products, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode product list: %w", err)
	}
	return data, nil
}

// ProductSubmission holds the raw form values of a new product.
type ProductSubmission struct {
	Name              string `form:"name" validate:"required"`
	Category          string `form:"category" validate:"required"`
	Price             string `form:"price" validate:"required"`
	Rating            string `form:"rating"`
	ShortDescription  string `form:"shortDescription"`
	Description       string `form:"description"`
	MetalType         string `form:"metalType"`
	WeightRange       string `form:"weightRange"`
	MakingChargesNote string `form:"makingChargesNote"`
	DeliveryInfo      string `form:"deliveryInfo"`
	Badge             string `form:"badge"`
}

// Trimmed returns the submission with surrounding whitespace removed.
func (s ProductSubmission) Trimmed() ProductSubmission {
	return ProductSubmission{
		Name:              strings.TrimSpace(s.Name),
		Category:          strings.TrimSpace(s.Category),
		Price:             strings.TrimSpace(s.Price),
		Rating:            strings.TrimSpace(s.Rating),
		ShortDescription:  strings.TrimSpace(s.ShortDescription),
		Description:       strings.TrimSpace(s.Description),
		MetalType:         strings.TrimSpace(s.MetalType),
		WeightRange:       strings.TrimSpace(s.WeightRange),
		MakingChargesNote: strings.TrimSpace(s.MakingChargesNote),
		DeliveryInfo:      strings.TrimSpace(s.DeliveryInfo),
		Badge:             strings.TrimSpace(s.Badge),
	}
}
