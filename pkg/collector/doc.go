// Package collector polls an lnd node's grpc administrative interface and
// maps each reply into typed metric records.
//
// Collection is not tied to scrape requests: a scheduler drives passes on its
// own cadence, each pass producing one immutable snapshot. Scrapers of the
// exporter only ever read the latest published snapshot, so a slow or failing
// node never shows up as a slow or failing scrape.
package collector
