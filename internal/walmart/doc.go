// Package walmart is a client for the Walmart Affiliate Product API.
//
// Every request is signed with the consumer's RSA key (see Signer) and sent
// through an httpclient.Client, which paces and retries calls. The client
// covers the paginated catalog, items-by-ids and UPC lookups, and keyword
// search, and builds affiliate links for returned items.
package walmart
