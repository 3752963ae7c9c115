package model

import "fmt"

// AuditStatus is the state of a store product as seen through the Walmart API.
type AuditStatus int

const (
	// AuditValid is a first-party, in-stock item with a GTIN.
	AuditValid AuditStatus = iota

	// AuditInvalidSKU is a variant whose SKU is not a Walmart item ID.
	AuditInvalidSKU

	// AuditNotFound is an item the API no longer returns.
	AuditNotFound

	// AuditThirdParty is an item sold by a marketplace seller.
	AuditThirdParty

	// AuditOutOfStock is an item whose stock is not Available.
	AuditOutOfStock

	// AuditMissingGTIN is an item without UPC or GTIN.
	AuditMissingGTIN
)

var auditStatusNames = map[AuditStatus]string{
	AuditValid:       "Valid",
	AuditInvalidSKU:  "Invalid SKU Format",
	AuditNotFound:    "Not Found in Walmart API",
	AuditThirdParty:  "Third Party",
	AuditOutOfStock:  "Out of Stock",
	AuditMissingGTIN: "Missing GTIN",
}

// String returns the label written to the Walmart_Status column.
func (s AuditStatus) String() string {
	if name, ok := auditStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AuditStatus(%d)", int(s))
}

// Action returns what should happen to a product in this state.
func (s AuditStatus) Action() Action {
	switch s {
	case AuditValid:
		return ActionUpdatePrice
	case AuditInvalidSKU:
		return ActionCheckSKU
	case AuditNotFound:
		return ActionArchive
	case AuditThirdParty:
		return ActionArchiveThirdParty
	case AuditOutOfStock:
		return ActionPause
	case AuditMissingGTIN:
		return ActionReview
	default:
		return ActionNone
	}
}

// ParseAuditStatus maps a Walmart_Status label back to its status.
func ParseAuditStatus(s string) (AuditStatus, bool) {
	for status, name := range auditStatusNames {
		if name == s {
			return status, true
		}
	}
	return 0, false
}

// Action is the follow-up an audit recommends for a product.
type Action string

// Actions written to the Action_Needed column.
const (
	ActionNone              Action = ""
	ActionUpdatePrice       Action = "Update Price & Sync"
	ActionCheckSKU          Action = "Check SKU"
	ActionArchive           Action = "Archive/Delete"
	ActionArchiveThirdParty Action = "Archive (3rd Party)"
	ActionPause             Action = "Pause (OOS)"
	ActionReview            Action = "Review (No GTIN)"
)

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}

// AuditRow is one line of an audit CSV.
type AuditRow struct {
	ShopifyID    int64       `json:"shopify_id"`
	Title        string      `json:"title"`
	SKU          string      `json:"sku"`
	Status       AuditStatus `json:"status"`
	Seller       string      `json:"seller,omitempty"`
	Stock        string      `json:"stock,omitempty"`
	Cost         string      `json:"cost,omitempty"`
	CurrentPrice string      `json:"current_price,omitempty"`
	TargetPrice  string      `json:"target_price,omitempty"`
	GTINFound    string      `json:"gtin_found,omitempty"`
	Action       Action      `json:"action"`
}
