package storefront

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"jewelcatalog/internal/models"
)

const maxCatalogBytes = 32 << 20

// Fetcher loads the catalog.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]models.Product, error)
}

// HTTPFetcher reads the catalog from the products endpoint of the backend.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for apiURL, for example
// http://localhost:4000/api/products.
func NewHTTPFetcher(apiURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{url: apiURL, client: client}
}

// FetchProducts downloads and normalizes the catalog.
func (f *HTTPFetcher) FetchProducts(ctx context.Context) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog endpoint returned %s", res.Status)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return models.DecodeProducts(body)
}
