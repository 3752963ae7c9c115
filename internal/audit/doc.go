// Package audit checks store products against live Walmart data and
// applies the resulting recommendations back to the store.
//
// An Auditor classifies every product by the Walmart item behind its first
// variant's SKU and emits one model.AuditRow per product. A Syncer reads
// those rows, typically from an audit CSV edited by hand, and updates
// prices, tags and status in Shopify.
package audit
