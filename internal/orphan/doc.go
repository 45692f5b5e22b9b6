// Package orphan compares a server inventory with a site inventory and
// reports the server files the site never links to.
//
// Both inventories are normalized before comparison: query strings are
// stripped from site paths, index files collapse to their directory, and
// the lists are deduplicated and sorted. Normalization is idempotent, so
// feeding a normalized inventory back in changes nothing.
package orphan
