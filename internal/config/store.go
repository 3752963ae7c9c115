package config

// StoreConfig holds per-store settings for a single Shopify shop domain.
type StoreConfig struct {
	// FulfillmentHandle is the fulfillment service handle variants are migrated to.
	FulfillmentHandle string `yaml:"fulfillmentHandle,omitempty"`

	// LocationID is the Shopify location whose inventory is set during migration.
	LocationID int64 `yaml:"locationId,omitempty"`

	// Quantity overrides the inventory quantity written for this store.
	Quantity int `yaml:"quantity,omitempty"`

	// PriceMultiplier overrides the cost multiplier of the audit price formula.
	PriceMultiplier float64 `yaml:"priceMultiplier,omitempty"`

	// Categories overrides the import categories for this store.
	Categories []string `yaml:"categories,omitempty"`
}

// File represents the structure of the .wmsync.yaml configuration file.
type File struct {
	// Stores maps shop domains (e.g. "example.myshopify.com") to store settings.
	Stores map[string]StoreConfig `yaml:"stores,omitempty"`

	// Defaults apply to every store unless overridden in Stores.
	Defaults StoreConfig `yaml:"defaults,omitempty"`

	// Keywords maps a best seller category to the search keywords used for it.
	// Categories listed here replace the built-in keyword lists.
	Keywords map[string][]string `yaml:"keywords,omitempty"`
}

// GetStoreConfig returns the configuration for a shop domain,
// merged with the file defaults.
func (cf *File) GetStoreConfig(shop string) StoreConfig {
	result := cf.Defaults
	if sc, ok := cf.Stores[shop]; ok {
		result = sc.mergeOnto(result)
	}
	return result
}

// mergeOnto copies the non-zero fields of sc over base.
func (sc StoreConfig) mergeOnto(base StoreConfig) StoreConfig {
	if sc.FulfillmentHandle != "" {
		base.FulfillmentHandle = sc.FulfillmentHandle
	}
	if sc.LocationID != 0 {
		base.LocationID = sc.LocationID
	}
	if sc.Quantity != 0 {
		base.Quantity = sc.Quantity
	}
	if sc.PriceMultiplier != 0 {
		base.PriceMultiplier = sc.PriceMultiplier
	}
	if len(sc.Categories) > 0 {
		base.Categories = append([]string(nil), sc.Categories...)
	}
	return base
}
