package storage

import (
	"fmt"
	"path"
	"strings"
)

// AssetPurpose names a storage layout for uploaded assets.
type AssetPurpose string

const (
	PurposeProductImage AssetPurpose = "product-image"
	PurposeSaleImage    AssetPurpose = "sale-image"
	PurposeBanner       AssetPurpose = "banner"
)

// PathParams carries the identifiers that go into an object key.
type PathParams struct {
	ProductID string
	SaleID    string
	Campaign  string
	FileName  string
}

// BuildObjectPath returns the bucket object key for an asset. Every segment
// is validated so client-supplied names cannot escape their prefix.
func BuildObjectPath(purpose AssetPurpose, params PathParams) (string, error) {
	fileName, err := cleanSegment("fileName", params.FileName)
	if err != nil {
		return "", err
	}

	switch purpose {
	case PurposeProductImage:
		productID, err := cleanSegment("productID", params.ProductID)
		if err != nil {
			return "", err
		}
		return path.Join("catalog/products", productID, fileName), nil
	case PurposeSaleImage:
		saleID, err := cleanSegment("saleID", params.SaleID)
		if err != nil {
			return "", err
		}
		return path.Join("catalog/sales", saleID, fileName), nil
	case PurposeBanner:
		campaign, err := cleanSegment("campaign", params.Campaign)
		if err != nil {
			return "", err
		}
		return path.Join("banners", campaign, fileName), nil
	default:
		return "", fmt.Errorf("storage: unsupported asset purpose %q", purpose)
	}
}

func cleanSegment(label, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", fmt.Errorf("storage: %s is required", label)
	case strings.ContainsAny(value, "/\\"):
		return "", fmt.Errorf("storage: %s contains a path separator", label)
	case strings.Contains(value, ".."):
		return "", fmt.Errorf("storage: %s contains a traversal sequence", label)
	}
	return value, nil
}
