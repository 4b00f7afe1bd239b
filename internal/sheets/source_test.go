package sheets_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"jewelcatalog/internal/models"
	"jewelcatalog/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const catalogCSV = `ID,Name,Category,Price,Rating,Metal,Weight,Is New
,Temple Necklace,Necklaces,"45,900",,Gold 22K,20-25g,TRUE
s-7,Ruby Ring,Rings,8000,4.2,,,
,,,,,,,
,No Category,,1200,,,,
,Pricey,Rings,ask,,,,
`

func newTestSource(t *testing.T, format string, body []byte, status int) (*sheets.Source, *int) {
	t.Helper()
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/d/abc123/export", r.URL.Path)
		assert.Equal(t, format, r.URL.Query().Get("format"))
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	source, err := sheets.NewSource(sheets.Config{
		SheetID:   "abc123",
		Format:    format,
		ExportURL: server.URL + "/d/%s/export?format=%s",
		Client:    server.Client(),
	}, zap.NewNop())
	require.NoError(t, err)
	return source, &hits
}

func TestSource_FetchCSV(t *testing.T) {
	source, hits := newTestSource(t, sheets.FormatCSV, []byte(catalogCSV), http.StatusOK)

	products, err := source.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, *hits)
	require.Len(t, products, 2)

	necklace := products[0]
	assert.Equal(t, "sheet-2", necklace.ID)
	assert.Equal(t, "Temple Necklace", necklace.Name)
	assert.Equal(t, 45900.0, necklace.Price)
	assert.Equal(t, models.DefaultRating, necklace.Rating)
	assert.Equal(t, "Gold 22K", necklace.MetalType)
	assert.Equal(t, "20-25g", necklace.WeightRange)
	assert.True(t, necklace.IsNew)

	ring := products[1]
	assert.Equal(t, "s-7", ring.ID)
	assert.Equal(t, 4.2, ring.Rating)
	assert.False(t, ring.IsNew)
}

func TestSource_ParseQuarantinesInvalidRows(t *testing.T) {
	source, _ := newTestSource(t, sheets.FormatCSV, nil, http.StatusOK)

	_, quarantined, err := source.Parse([]byte(catalogCSV))

	require.NoError(t, err)
	require.Len(t, quarantined, 2)
	assert.Equal(t, 5, quarantined[0].Row)
	assert.Contains(t, quarantined[0].Reason, "category")
	assert.Equal(t, 6, quarantined[1].Row)
	assert.Contains(t, quarantined[1].Reason, "price")
}

func TestSource_ParseQuarantinesNonFinitePrices(t *testing.T) {
	source, _ := newTestSource(t, sheets.FormatCSV, nil, http.StatusOK)
	data := "name,category,price\nRing,Rings,Inf\nChain,Chains,NaN\nStud,Earrings,900\n"

	products, quarantined, err := source.Parse([]byte(data))

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Stud", products[0].Name)
	require.Len(t, quarantined, 2)
	assert.Equal(t, 2, quarantined[0].Row)
	assert.Equal(t, 3, quarantined[1].Row)
}

func TestSource_FetchXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"name", "category", "price", "making_charges"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Jhumka", "Earrings", 12500, "12% on gold"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Kada", "Bangles", 30000}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	source, _ := newTestSource(t, sheets.FormatXLSX, buf.Bytes(), http.StatusOK)

	products, err := source.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "sheet-2", products[0].ID)
	assert.Equal(t, 12500.0, products[0].Price)
	assert.Equal(t, "12% on gold", products[0].MakingChargesNote)
	assert.Equal(t, "sheet-3", products[1].ID)
	assert.Equal(t, "", products[1].MakingChargesNote)
}

func TestSource_FetchHTTPError(t *testing.T) {
	source, _ := newTestSource(t, sheets.FormatCSV, []byte("gone"), http.StatusNotFound)

	products, err := source.Fetch(context.Background())

	assert.Error(t, err)
	assert.Nil(t, products)
}

func TestSource_EmptyExport(t *testing.T) {
	source, _ := newTestSource(t, sheets.FormatCSV, nil, http.StatusOK)

	products, err := source.Fetch(context.Background())

	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestNewSource_Validation(t *testing.T) {
	_, err := sheets.NewSource(sheets.Config{}, nil)
	assert.Error(t, err)

	_, err = sheets.NewSource(sheets.Config{SheetID: "x", Format: "ods"}, nil)
	assert.Error(t, err)

	source, err := sheets.NewSource(sheets.Config{SheetID: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/x/export?format=csv", source.URL())
	assert.Equal(t, "sheet:x", source.Name())
}
