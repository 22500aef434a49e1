package collector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lightningnetwork/lnd/lnrpc"
)

func scrapeListChannels(ctx context.Context, client LightningClient) (ScrapeResult, error) {
	res, err := client.ListChannels(ctx, &lnrpc.ListChannelsRequest{})
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("list channels: %w", err)
	}

	balanceDesc := "individual channel balances in satoshis"
	capacityDesc := "total capacity of the channel in satoshis"

	records := make([]Record, 0, 4*len(res.Channels))

	for _, channel := range res.Channels {
		chanID := strconv.FormatUint(channel.ChanId, 10)
		active := strconv.FormatBool(channel.Active)

		balance := func(category string, value int64) Record {
			return Record{
				Name: "lnd_channel_balance_total_sat",
				Help: balanceDesc,
				Labels: map[string]string{
					"chan_id":       chanID,
					"active":        active,
					"channel_point": channel.ChannelPoint,
					"category":      category,
				},
				Value: float64(value),
				Kind:  Gauge,
			}
		}

		records = append(records,
			balance("local", channel.LocalBalance),
			balance("remote", channel.RemoteBalance),
			balance("unsettled", channel.UnsettledBalance),
			Record{
				Name: "lnd_channel_capacity_sat",
				Help: capacityDesc,
				Labels: map[string]string{
					"chan_id":       chanID,
					"channel_point": channel.ChannelPoint,
				},
				Value: float64(channel.Capacity),
				Kind:  Gauge,
			},
		)
	}

	return ScrapeResult{Records: records}, nil
}
