package oauth2client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/AmmannChristian/go-figo/transport"
)

// CatalogKind selects a part of the public catalog.
type CatalogKind string

const (
	CatalogAll      CatalogKind = ""
	CatalogBanks    CatalogKind = "banks"
	CatalogServices CatalogKind = "services"
)

// CatalogBank is a bank supported by the API.
type CatalogBank struct {
	BankCode string `json:"bank_code"`
	BankName string `json:"bank_name"`
	BIC      string `json:"bic,omitempty"`
}

// CatalogService is a non-bank financial service supported by the API.
type CatalogService struct {
	Name     string `json:"name"`
	BankCode string `json:"bank_code,omitempty"`
}

// Catalog lists supported banks and services.
type Catalog struct {
	Banks    []CatalogBank    `json:"banks,omitempty"`
	Services []CatalogService `json:"services,omitempty"`
}

// Catalog fetches the catalog using client credentials. No user token is
// needed.
func (c *Client) Catalog(ctx context.Context, kind CatalogKind) (*Catalog, error) {
	path := catalogPath
	switch kind {
	case CatalogAll:
	case CatalogBanks, CatalogServices:
		path += "/" + string(kind)
	default:
		return nil, fmt.Errorf("oauth2client: unknown catalog %q", kind)
	}

	outcome, err := c.tr.Do(ctx, transport.RequestSpec{
		Path:   path,
		Method: http.MethodGet,
		Header: http.Header{"Authorization": {c.creds.authorization()}},
	})
	if err != nil {
		return nil, fmt.Errorf("oauth2client: catalog: %w", err)
	}

	var catalog Catalog
	if outcome.Found && !outcome.Empty() {
		if err := json.Unmarshal(outcome.Body, &catalog); err != nil {
			return nil, fmt.Errorf("oauth2client: catalog: %w", err)
		}
	}
	return &catalog, nil
}
