package collector

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
)

// paymentStatuses fixes the label value and emission order for each payment
// status the node reports.
var paymentStatuses = []struct {
	status lnrpc.Payment_PaymentStatus
	name   string
}{
	{lnrpc.Payment_UNKNOWN, "unknown"},
	{lnrpc.Payment_IN_FLIGHT, "in_flight"},
	{lnrpc.Payment_SUCCEEDED, "succeeded"},
	{lnrpc.Payment_FAILED, "failed"},
}

// paymentFailureReasons does the same for failure reasons.
var paymentFailureReasons = []struct {
	reason lnrpc.PaymentFailureReason
	name   string
}{
	{lnrpc.PaymentFailureReason_FAILURE_REASON_NONE, "none"},
	{lnrpc.PaymentFailureReason_FAILURE_REASON_TIMEOUT, "timeout"},
	{lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE, "no_route"},
	{lnrpc.PaymentFailureReason_FAILURE_REASON_ERROR, "error"},
	{lnrpc.PaymentFailureReason_FAILURE_REASON_INCORRECT_PAYMENT_DETAILS, "incorrect_payment_details"},
	{lnrpc.PaymentFailureReason_FAILURE_REASON_INSUFFICIENT_BALANCE, "insufficient_balance"},
}

// paymentsScraper keeps a running tally of outgoing payments by status and
// failure reason. The index offset makes each pass fetch only payments the
// node indexed after the previous one, so the tally accumulates over the
// process lifetime instead of re-reading the whole payment database.
//
// The scheduler runs at most one pass at a time, so the cache needs no lock.
type paymentsScraper struct {
	indexOffset uint64

	byStatus map[lnrpc.Payment_PaymentStatus]float64
	byReason map[lnrpc.PaymentFailureReason]float64
}

func newPaymentsScraper() *paymentsScraper {
	return &paymentsScraper{
		byStatus: map[lnrpc.Payment_PaymentStatus]float64{},
		byReason: map[lnrpc.PaymentFailureReason]float64{},
	}
}

func (s *paymentsScraper) scrape(ctx context.Context, client LightningClient) (ScrapeResult, error) {
	res, err := client.ListPayments(ctx, &lnrpc.ListPaymentsRequest{
		IncludeIncomplete: true,
		IndexOffset:       s.indexOffset,
	})
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("list payments: %w", err)
	}

	if res.LastIndexOffset > 0 {
		s.indexOffset = res.LastIndexOffset
	}

	for _, payment := range res.Payments {
		s.byStatus[payment.Status]++
		s.byReason[payment.FailureReason]++
	}

	records := make([]Record, 0, len(paymentStatuses)+len(paymentFailureReasons))

	for _, e := range paymentStatuses {
		records = append(records, Record{
			Name:   "lnd_outgoing_payments",
			Help:   "number of outgoing payments on the lnd node",
			Labels: map[string]string{"status": e.name},
			Value:  s.byStatus[e.status],
			Kind:   Gauge,
		})
	}

	for _, e := range paymentFailureReasons {
		records = append(records, Record{
			Name:   "lnd_payment_failure_reasons",
			Help:   "payment failure reasons",
			Labels: map[string]string{"reason": e.name},
			Value:  s.byReason[e.reason],
			Kind:   Gauge,
		})
	}

	return ScrapeResult{Records: records}, nil
}
