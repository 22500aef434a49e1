package collector

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
)

func scrapeWalletBalance(ctx context.Context, client LightningClient) (ScrapeResult, error) {
	res, err := client.WalletBalance(ctx, &lnrpc.WalletBalanceRequest{})
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("wallet balance: %w", err)
	}

	desc := "on-chain wallet balance in satoshis"

	return ScrapeResult{Records: []Record{
		{
			Name:   "lnd_wallet_balance_sat",
			Help:   desc,
			Labels: map[string]string{"status": "total"},
			Value:  float64(res.TotalBalance),
			Kind:   Gauge,
		},
		{
			Name:   "lnd_wallet_balance_sat",
			Help:   desc,
			Labels: map[string]string{"status": "confirmed"},
			Value:  float64(res.ConfirmedBalance),
			Kind:   Gauge,
		},
		{
			Name:   "lnd_wallet_balance_sat",
			Help:   desc,
			Labels: map[string]string{"status": "unconfirmed"},
			Value:  float64(res.UnconfirmedBalance),
			Kind:   Gauge,
		},
	}}, nil
}

func scrapeChannelBalance(ctx context.Context, client LightningClient) (ScrapeResult, error) {
	res, err := client.ChannelBalance(ctx, &lnrpc.ChannelBalanceRequest{})
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("channel balance: %w", err)
	}

	return ScrapeResult{Records: []Record{
		{
			Name:  "lnd_channel_balance_sat",
			Help:  "balance available across all open channels in satoshis",
			Value: float64(res.Balance),
			Kind:  Gauge,
		},
		{
			Name:  "lnd_channel_pending_open_balance_sat",
			Help:  "balance in channels still pending open in satoshis",
			Value: float64(res.PendingOpenBalance),
			Kind:  Gauge,
		},
	}}, nil
}
