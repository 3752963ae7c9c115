package shopify

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// maxInventoryItemIDs is the largest ID list inventory_levels.json accepts.
const maxInventoryItemIDs = 50

// Locations lists the store's locations.
func (c *Client) Locations(ctx context.Context) ([]Location, error) {
	var out struct {
		Locations []Location `json:"locations"`
	}
	if _, err := c.do(ctx, "shopify locations", http.MethodGet, "/locations.json", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Locations, nil
}

// FulfillmentServices lists every fulfillment service, including ones
// registered by other apps.
func (c *Client) FulfillmentServices(ctx context.Context) ([]FulfillmentService, error) {
	var out struct {
		FulfillmentServices []FulfillmentService `json:"fulfillment_services"`
	}
	query := url.Values{"scope": {"all"}}
	if _, err := c.do(ctx, "shopify fulfillment services", http.MethodGet, "/fulfillment_services.json", query, nil, &out); err != nil {
		return nil, err
	}
	return out.FulfillmentServices, nil
}

// FulfillmentHandleForLocation returns the handle of the fulfillment service
// bound to locationID, or "" when none is.
func (c *Client) FulfillmentHandleForLocation(ctx context.Context, locationID int64) (string, error) {
	services, err := c.FulfillmentServices(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range services {
		if s.LocationID == locationID {
			return s.Handle, nil
		}
	}
	return "", nil
}

// InventoryLevels returns the levels of the given inventory items at every location.
func (c *Client) InventoryLevels(ctx context.Context, inventoryItemIDs []int64) ([]InventoryLevel, error) {
	var levels []InventoryLevel
	for _, batch := range lo.Chunk(lo.Uniq(inventoryItemIDs), maxInventoryItemIDs) {
		ids := lo.Map(batch, func(id int64, _ int) string { return strconv.FormatInt(id, 10) })
		query := url.Values{
			"inventory_item_ids": {strings.Join(ids, ",")},
			"limit":              {strconv.Itoa(MaxPageSize)},
		}
		var out struct {
			InventoryLevels []InventoryLevel `json:"inventory_levels"`
		}
		if _, err := c.do(ctx, "shopify inventory levels", http.MethodGet, "/inventory_levels.json", query, nil, &out); err != nil {
			return levels, err
		}
		levels = append(levels, out.InventoryLevels...)
	}
	return levels, nil
}

// ConnectInventory stocks an inventory item at a location.
func (c *Client) ConnectInventory(ctx context.Context, inventoryItemID, locationID int64) (*InventoryLevel, error) {
	in := map[string]any{
		"inventory_item_id": inventoryItemID,
		"location_id":       locationID,
	}
	var out struct {
		InventoryLevel InventoryLevel `json:"inventory_level"`
	}
	if _, err := c.do(ctx, "shopify connect inventory", http.MethodPost, "/inventory_levels/connect.json", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.InventoryLevel, nil
}

// SetInventory sets the available quantity of an item at a location.
func (c *Client) SetInventory(ctx context.Context, inventoryItemID, locationID int64, available int) (*InventoryLevel, error) {
	in := map[string]any{
		"inventory_item_id": inventoryItemID,
		"location_id":       locationID,
		"available":         available,
	}
	var out struct {
		InventoryLevel InventoryLevel `json:"inventory_level"`
	}
	if _, err := c.do(ctx, "shopify set inventory", http.MethodPost, "/inventory_levels/set.json", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.InventoryLevel, nil
}

// DeleteInventoryLevel disconnects an item from a location.
func (c *Client) DeleteInventoryLevel(ctx context.Context, inventoryItemID, locationID int64) error {
	query := url.Values{
		"inventory_item_id": {strconv.FormatInt(inventoryItemID, 10)},
		"location_id":       {strconv.FormatInt(locationID, 10)},
	}
	_, err := c.do(ctx, "shopify delete inventory level", http.MethodDelete, "/inventory_levels.json", query, nil, nil)
	return err
}

// StockOnlyAt connects an item to locationID, sets its quantity there and
// disconnects every other location. Failures to disconnect are logged and
// do not fail the call.
func (c *Client) StockOnlyAt(ctx context.Context, inventoryItemID, locationID int64, available int) error {
	if _, err := c.ConnectInventory(ctx, inventoryItemID, locationID); err != nil {
		return err
	}
	if _, err := c.SetInventory(ctx, inventoryItemID, locationID, available); err != nil {
		return err
	}

	levels, err := c.InventoryLevels(ctx, []int64{inventoryItemID})
	if err != nil {
		return err
	}
	for _, lvl := range levels {
		if lvl.LocationID == locationID {
			continue
		}
		if err := c.DeleteInventoryLevel(ctx, inventoryItemID, lvl.LocationID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("failed to disconnect location",
				"inventory_item_id", inventoryItemID,
				"location_id", lvl.LocationID,
				"error", err,
			)
		}
	}
	return nil
}
