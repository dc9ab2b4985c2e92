package regions

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Client fetches the catalog from a remote region_municipios_all endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient returns a catalog client for url. Returns nil when url is empty,
// callers then read the catalog from the database.
func NewClient(url string) *Client {
	if url == "" {
		return nil
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchCatalog downloads and decodes the catalog.
func (c *Client) FetchCatalog(ctx context.Context) (Catalog, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Catalog{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrCatalogFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Catalog{}, fmt.Errorf("%w: %s returned HTTP %d", ErrCatalogFetch, c.url, resp.StatusCode)
	}

	cat, err := DecodeCatalog(resp.Body)
	if err != nil {
		return Catalog{}, err
	}
	log.Printf("[regions] catalog fetched status=%d duration=%dms regiones=%d",
		resp.StatusCode, time.Since(start).Milliseconds(), len(cat.Regiones))
	return cat, nil
}
