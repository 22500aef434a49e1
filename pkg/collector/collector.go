package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/lightningnetwork/lnd/lnrpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// LightningClient is the subset of lnrpc.LightningClient that the scraper
// table exercises.
type LightningClient interface {
	GetInfo(ctx context.Context, in *lnrpc.GetInfoRequest, opts ...grpc.CallOption) (*lnrpc.GetInfoResponse, error)
	WalletBalance(ctx context.Context, in *lnrpc.WalletBalanceRequest, opts ...grpc.CallOption) (*lnrpc.WalletBalanceResponse, error)
	ChannelBalance(ctx context.Context, in *lnrpc.ChannelBalanceRequest, opts ...grpc.CallOption) (*lnrpc.ChannelBalanceResponse, error)
	ListChannels(ctx context.Context, in *lnrpc.ListChannelsRequest, opts ...grpc.CallOption) (*lnrpc.ListChannelsResponse, error)
	ListPeers(ctx context.Context, in *lnrpc.ListPeersRequest, opts ...grpc.CallOption) (*lnrpc.ListPeersResponse, error)
	ListPayments(ctx context.Context, in *lnrpc.ListPaymentsRequest, opts ...grpc.CallOption) (*lnrpc.ListPaymentsResponse, error)
}

// ensure the real client satisfies our subset.
var _ LightningClient = lnrpc.LightningClient(nil)

// ScrapeResult is what one endpoint's mapping function produced from a
// successful rpc reply.
type ScrapeResult struct {
	Records []Record

	// NodeID is the identity pubkey of the node, reported only by the
	// get_info scraper. A non-empty value updates the identity used to
	// label every record of the pass.
	NodeID string
}

// ScrapeFunc issues one rpc call and maps the reply into records.
type ScrapeFunc func(ctx context.Context, client LightningClient) (ScrapeResult, error)

// Scraper binds an endpoint name to its mapping function. The name shows up
// in logs and as the `endpoint` label on the collection error counter.
type Scraper struct {
	Name   string
	Scrape ScrapeFunc
}

const (
	errorsMetric = "lnd_collector_errors_total"
	errorsHelp   = "number of failed collection attempts per rpc endpoint"

	identityLabel = "pubkey"
)

// Collector runs collection passes against a single lnd node.
//
// It keeps per-endpoint state between passes (last successful records for
// carry-over, cumulative failure counts, the node identity), so a Collector
// must only ever be driven by one goroutine at a time.
type Collector struct {
	client   LightningClient
	scrapers []Scraper
	timeout  time.Duration

	// prior holds each endpoint's records from the last pass in which it
	// succeeded, carried over verbatim when it fails.
	prior map[string][]Record

	// errors holds the cumulative per-endpoint failure count.
	errors map[string]float64

	// identity is the node pubkey last reported by get_info.
	identity string

	log logr.Logger
}

// Option is a type used by functional arguments to override the collector's
// default behavior.
type Option func(c *Collector)

// WithTimeout overrides the default per-call timeout. Every rpc call of a
// pass is bounded by it individually, so it also bounds the whole pass.
func WithTimeout(v time.Duration) Option {
	return func(c *Collector) {
		c.timeout = v
	}
}

// WithScrapers swaps the default endpoint table for a custom one.
func WithScrapers(v []Scraper) Option {
	return func(c *Collector) {
		c.scrapers = v
	}
}

// WithLogger overrides the default development logger.
func WithLogger(v logr.Logger) Option {
	return func(c *Collector) {
		c.log = v
	}
}

// New creates a Collector polling the default scraper table through client.
func New(client LightningClient, opts ...Option) (*Collector, error) {
	defaultLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("zap new development: %w", err)
	}

	c := &Collector{
		client:   client,
		scrapers: DefaultScrapers(),
		timeout:  10 * time.Second,
		prior:    map[string][]Record{},
		errors:   map[string]float64{},
		log:      zapr.NewLogger(defaultLogger.Named("collector")),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Collect runs one collection pass: every scraper in the table is called
// concurrently, each bounded by the per-call timeout, and the joined results
// are assembled into a fresh snapshot.
//
// A failing endpoint contributes its previous pass's records instead and
// bumps its error counter; it never fails the pass nor cancels its siblings.
// An error is returned only when no client is available at all, in which
// case no snapshot is produced and the previous one remains current.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	if c.client == nil {
		return nil, fmt.Errorf("collect: no lnd client")
	}

	results := make([]ScrapeResult, len(c.scrapers))
	failures := make([]error, len(c.scrapers))

	// a plain group, not errgroup.WithContext: one endpoint failing must
	// not cancel the calls still in flight for the others.
	g := new(errgroup.Group)

	for i, scraper := range c.scrapers {
		i, scraper := i, scraper

		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			res, err := scraper.Scrape(callCtx, c.client)
			if err != nil {
				failures[i] = fmt.Errorf("%s scrape: %w", scraper.Name, err)
				return nil
			}

			results[i] = res

			return nil
		})
	}

	_ = g.Wait()

	return c.assemble(results, failures), nil
}

func (c *Collector) assemble(results []ScrapeResult, failures []error) *Snapshot {
	for _, res := range results {
		if res.NodeID != "" {
			c.identity = res.NodeID
		}
	}

	var records []Record

	for i, scraper := range c.scrapers {
		if err := failures[i]; err != nil {
			c.errors[scraper.Name]++
			c.log.Error(err, "endpoint failed, carrying over previous records",
				"endpoint", scraper.Name,
				"carried", len(c.prior[scraper.Name]),
			)

			records = append(records, c.prior[scraper.Name]...)

			continue
		}

		labeled := c.labeled(results[i].Records)
		c.prior[scraper.Name] = labeled

		records = append(records, labeled...)
	}

	// the error counters are always emitted, even at zero, so the series
	// exist from the first pass onwards.
	for _, scraper := range c.scrapers {
		records = append(records, Record{
			Name:   errorsMetric,
			Help:   errorsHelp,
			Labels: map[string]string{"endpoint": scraper.Name},
			Value:  c.errors[scraper.Name],
			Kind:   Counter,
		})
	}

	return &Snapshot{
		TakenAt: time.Now(),
		Records: records,
	}
}

// labeled stamps the node identity onto records that do not carry one of
// their own yet. Carried-over records were stamped by the pass that produced
// them and are left untouched.
func (c *Collector) labeled(records []Record) []Record {
	if c.identity == "" {
		return records
	}

	for i := range records {
		if records[i].Labels == nil {
			records[i].Labels = map[string]string{}
		}

		if _, ok := records[i].Labels[identityLabel]; !ok {
			records[i].Labels[identityLabel] = c.identity
		}
	}

	return records
}
