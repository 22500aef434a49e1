package collector

// DefaultScrapers is the endpoint table polled on every pass: one entry per
// rpc method, each mapping its reply into records. The table is plain data
// so deployments needing a different method set or label schema can pass
// their own via WithScrapers.
func DefaultScrapers() []Scraper {
	payments := newPaymentsScraper()

	return []Scraper{
		{Name: "get_info", Scrape: scrapeGetInfo},
		{Name: "wallet_balance", Scrape: scrapeWalletBalance},
		{Name: "channel_balance", Scrape: scrapeChannelBalance},
		{Name: "list_channels", Scrape: scrapeListChannels},
		{Name: "list_peers", Scrape: scrapeListPeers},
		{Name: "list_payments", Scrape: payments.scrape},
	}
}
