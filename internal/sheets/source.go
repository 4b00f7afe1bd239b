// Package sheets connects the catalog to a spreadsheet: a read-only export
// merged into the product list and a web-app endpoint that receives copies of
// new products.
package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"jewelcatalog/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Export formats understood by Source.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// DefaultExportURL is a Google Sheets export link; the placeholders are the
// sheet id and the format.
const DefaultExportURL = "https://docs.google.com/spreadsheets/d/%s/export?format=%s"

const maxExportBytes = 16 << 20

// Config configures a Source.
type Config struct {
	SheetID   string
	Format    string
	ExportURL string
	Client    *http.Client
}

// sheetRow is one spreadsheet row. Tags are normalized header names (see
// normalizeHeader).
type sheetRow struct {
	ID                string `csv:"id"`
	Name              string `csv:"name"`
	Category          string `csv:"category"`
	Price             string `csv:"price"`
	Rating            string `csv:"rating"`
	Image             string `csv:"image"`
	ShortDescription  string `csv:"shortdescription"`
	Description       string `csv:"description"`
	MetalType         string `csv:"metaltype"`
	Metal             string `csv:"metal"`
	WeightRange       string `csv:"weightrange"`
	Weight            string `csv:"weight"`
	MakingChargesNote string `csv:"makingchargesnote"`
	MakingCharges     string `csv:"makingcharges"`
	DeliveryInfo      string `csv:"deliveryinfo"`
	Badge             string `csv:"badge"`
	IsNew             string `csv:"isnew"`
	IsBestSeller      string `csv:"isbestseller"`
	HasOffer          string `csv:"hasoffer"`
	IsCustomisable    string `csv:"iscustomisable"`
}

func (r sheetRow) raw() models.RawProduct {
	raw := models.RawProduct{
		ID:                r.ID,
		Name:              r.Name,
		Category:          r.Category,
		Image:             r.Image,
		ShortDescription:  r.ShortDescription,
		Description:       r.Description,
		MetalType:         r.MetalType,
		Metal:             r.Metal,
		WeightRange:       r.WeightRange,
		Weight:            r.Weight,
		MakingChargesNote: r.MakingChargesNote,
		MakingCharges:     r.MakingCharges,
		DeliveryInfo:      r.DeliveryInfo,
		Badge:             r.Badge,
		IsNew:             r.IsNew,
		IsBestSeller:      r.IsBestSeller,
		HasOffer:          r.HasOffer,
		IsCustomisable:    r.IsCustomisable,
	}
	// Blank cells stay nil so they take the same defaults as absent JSON fields.
	if strings.TrimSpace(r.Price) != "" {
		raw.Price = r.Price
	}
	if strings.TrimSpace(r.Rating) != "" {
		raw.Rating = r.Rating
	}
	return raw
}

// QuarantinedRow is a spreadsheet row rejected at the boundary.
type QuarantinedRow struct {
	Row    int
	Reason string
}

// Source reads products from a published spreadsheet export.
type Source struct {
	sheetID   string
	format    string
	exportURL string
	client    *http.Client
	validate  *validator.Validate
	log       *zap.Logger
}

// NewSource creates a Source for the given sheet.
func NewSource(cfg Config, logger *zap.Logger) (*Source, error) {
	if strings.TrimSpace(cfg.SheetID) == "" {
		return nil, errors.New("sheet id is empty")
	}
	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, fmt.Errorf("unsupported sheet format %q", cfg.Format)
	}
	exportURL := cfg.ExportURL
	if exportURL == "" {
		exportURL = DefaultExportURL
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		sheetID:   strings.TrimSpace(cfg.SheetID),
		format:    format,
		exportURL: exportURL,
		client:    client,
		validate:  validator.New(),
		log:       logger,
	}, nil
}

// Name identifies the source in logs.
func (s *Source) Name() string {
	return "sheet:" + s.sheetID
}

// URL returns the export link that Fetch downloads.
func (s *Source) URL() string {
	return fmt.Sprintf(s.exportURL, url.PathEscape(s.sheetID), s.format)
}

// Fetch downloads the export and returns its valid rows as products.
// Malformed rows are skipped and logged.
func (s *Source) Fetch(ctx context.Context) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet export returned %s", res.Status)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxExportBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet export: %w", err)
	}

	products, quarantined, err := s.Parse(body)
	if err != nil {
		return nil, err
	}
	for _, q := range quarantined {
		s.log.Warn("sheet row quarantined", zap.String("source", s.Name()), zap.Int("row", q.Row), zap.String("reason", q.Reason))
	}
	return products, nil
}

// Parse decodes an export in the source's format.
func (s *Source) Parse(data []byte) ([]models.Product, []QuarantinedRow, error) {
	var (
		records [][]string
		err     error
	)
	switch s.format {
	case FormatXLSX:
		records, err = readXLSX(data)
	default:
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, nil, err
	}
	return s.toProducts(records)
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv export: %w", err)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx export: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx export has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

func (s *Source) toProducts(records [][]string) ([]models.Product, []QuarantinedRow, error) {
	if len(records) == 0 {
		return []models.Product{}, nil, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = normalizeHeader(h)
	}

	// Blank rows are dropped before decoding; rowNumbers keeps the
	// spreadsheet numbering (header is row 1) for ids and logs.
	table := [][]string{header}
	var rowNumbers []int
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		table = append(table, pad(record, len(header)))
		rowNumbers = append(rowNumbers, i+2)
	}

	var rows []sheetRow
	if err := gocsv.UnmarshalCSV(&recordReader{records: table}, &rows); err != nil {
		return nil, nil, fmt.Errorf("failed to decode sheet rows: %w", err)
	}

	products := make([]models.Product, 0, len(rows))
	var quarantined []QuarantinedRow
	for i, row := range rows {
		rowNumber := rowNumbers[i]
		product := row.raw().Normalize()

		if reason := s.check(product); reason != "" {
			quarantined = append(quarantined, QuarantinedRow{Row: rowNumber, Reason: reason})
			continue
		}
		if product.ID == "" {
			product.ID = fmt.Sprintf("sheet-%d", rowNumber)
		}
		products = append(products, product)
	}
	return products, quarantined, nil
}

func (s *Source) check(p models.Product) string {
	if err := s.validate.Struct(p); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(e.Field()), e.Tag()))
			}
			return strings.Join(fields, "; ")
		}
		return err.Error()
	}
	if p.PriceMissing {
		return "price is not a non-negative number"
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func pad(record []string, n int) []string {
	if len(record) >= n {
		return record
	}
	out := make([]string, n)
	copy(out, record)
	return out
}

// recordReader feeds already split rows to gocsv.
type recordReader struct {
	records [][]string
	pos     int
}

func (r *recordReader) Read() ([]string, error) {
	if r.pos >= len(r.records) {
		return nil, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	rest := r.records[r.pos:]
	r.pos = len(r.records)
	return rest, nil
}
