package walmart

import (
	"fmt"
	"net/url"
)

// affiliateSourceID is the static source parameter of Impact tracking links.
const affiliateSourceID = "imp_000011112222333344"

// AffiliateIDs identify the publisher in the Impact affiliate network.
type AffiliateIDs struct {
	PublisherID string
	CampaignID  string
	AdID        string
}

// ProductPage returns the item's product page, built from its ID when the
// API did not return one.
func (i Item) ProductPage() string {
	if i.ProductURL != "" {
		return i.ProductURL
	}
	if i.ItemID == 0 {
		return ""
	}
	return fmt.Sprintf("https://www.walmart.com/ip/%d", i.ItemID)
}

// AffiliateLink returns the link that credits ids for a sale of item.
// The API's own productTrackingUrl is preferred; without one a goto.walmart.com
// link is built when a publisher ID is known; otherwise the plain product page
// is returned.
func AffiliateLink(item Item, ids AffiliateIDs) string {
	if item.ProductTrackingURL != "" {
		return item.ProductTrackingURL
	}
	page := item.ProductPage()
	if ids.PublisherID == "" || page == "" {
		return page
	}
	return fmt.Sprintf("https://goto.walmart.com/c/%s/%s/%s?veh=aff&sourceid=%s&u=%s",
		ids.PublisherID, ids.AdID, ids.CampaignID, affiliateSourceID, url.QueryEscape(page))
}
