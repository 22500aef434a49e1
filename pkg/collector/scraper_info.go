package collector

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
)

func scrapeGetInfo(ctx context.Context, client LightningClient) (ScrapeResult, error) {
	res, err := client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("get info: %w", err)
	}

	records := []Record{
		{
			Name: "lnd_info",
			Help: "static information about the lnd node",
			Labels: map[string]string{
				"pubkey":  res.IdentityPubkey,
				"alias":   res.Alias,
				"version": res.Version,
			},
			Value: 1,
			Kind:  Gauge,
		},
		{
			Name:  "lnd_num_peers_total",
			Help:  "number of peers connected to the lnd node",
			Value: float64(res.NumPeers),
			Kind:  Gauge,
		},
		{
			Name:  "lnd_block_height",
			Help:  "chain block height",
			Value: float64(res.BlockHeight),
			Kind:  Gauge,
		},
		{
			Name:  "lnd_synced_to_chain",
			Help:  "whether the wallet is up to date with on-chain state",
			Value: boolToFloat64(res.SyncedToChain),
			Kind:  Gauge,
		},
		{
			Name:  "lnd_synced_to_graph",
			Help:  "whether the node is up to date with the channel graph",
			Value: boolToFloat64(res.SyncedToGraph),
			Kind:  Gauge,
		},
	}

	channelsDesc := "number of channels by state"
	for state, count := range map[string]uint32{
		"active":   res.NumActiveChannels,
		"inactive": res.NumInactiveChannels,
		"pending":  res.NumPendingChannels,
	} {
		records = append(records, Record{
			Name:   "lnd_channels",
			Help:   channelsDesc,
			Labels: map[string]string{"state": state},
			Value:  float64(count),
			Kind:   Gauge,
		})
	}

	return ScrapeResult{
		Records: records,
		NodeID:  res.IdentityPubkey,
	}, nil
}
