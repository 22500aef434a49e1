package collector

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
)

func scrapeListPeers(ctx context.Context, client LightningClient) (ScrapeResult, error) {
	res, err := client.ListPeers(ctx, &lnrpc.ListPeersRequest{})
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("list peers: %w", err)
	}

	records := make([]Record, 0, 3*len(res.Peers))

	for _, peer := range res.Peers {
		records = append(records,
			Record{
				Name:   "lnd_peer_bytes_sent_total",
				Help:   "bytes sent to the peer over the p2p connection",
				Labels: map[string]string{"peer": peer.PubKey},
				Value:  float64(peer.BytesSent),
				Kind:   Counter,
			},
			Record{
				Name:   "lnd_peer_bytes_recv_total",
				Help:   "bytes received from the peer over the p2p connection",
				Labels: map[string]string{"peer": peer.PubKey},
				Value:  float64(peer.BytesRecv),
				Kind:   Counter,
			},
			Record{
				Name:   "lnd_peer_ping_time_usec",
				Help:   "round trip time to the peer in microseconds",
				Labels: map[string]string{"peer": peer.PubKey},
				Value:  float64(peer.PingTime),
				Kind:   Gauge,
			},
		)
	}

	return ScrapeResult{Records: records}, nil
}
