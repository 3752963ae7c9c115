package transform

import (
	"strings"

	"github.com/nao1215/wmsync/internal/walmart"
)

// StockAvailable is the stock value of an item that can be ordered.
const StockAvailable = "Available"

// IsValid reports whether item carries what an import needs: an ID, a
// name, a positive price and online availability.
func IsValid(item walmart.Item) bool {
	if item.ItemID == 0 || strings.TrimSpace(item.Name) == "" {
		return false
	}
	if item.Price() <= 0 {
		return false
	}
	return item.AvailableOnline
}

// MatchesCategory reports whether item belongs to any of categories,
// comparing case-insensitively against the category path and node.
// An empty list matches everything.
func MatchesCategory(item walmart.Item, categories []string) bool {
	if len(categories) == 0 {
		return true
	}
	path := strings.ToLower(item.CategoryPath)
	node := strings.ToLower(item.CategoryNode)
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if strings.Contains(path, c) || strings.Contains(node, c) {
			return true
		}
	}
	return false
}

// IsWalmartSeller reports whether item is sold by Walmart itself. Without
// seller info, only marketplace listings are rejected.
func IsWalmartSeller(item walmart.Item) bool {
	seller := strings.ToLower(item.SellerInfo)
	switch {
	case strings.Contains(seller, "walmart"):
		return true
	case seller != "":
		return false
	default:
		return !item.Marketplace
	}
}

// IsFirstParty is the stricter seller check used by audits and best
// seller imports: not a marketplace listing, or sold by Walmart by name.
func IsFirstParty(item walmart.Item) bool {
	return !item.Marketplace || strings.Contains(strings.ToLower(item.SellerInfo), "walmart")
}

// InStock reports whether item's stock is Available.
func InStock(item walmart.Item) bool {
	return item.Stock == StockAvailable
}
