package exporter

import (
	"sort"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/FelipeRosa/lnd-exporter/pkg/collector"
	"github.com/FelipeRosa/lnd-exporter/pkg/registry"
)

// snapshotCollector renders the registry's current snapshot as prometheus
// const metrics so promhttp can encode it in the text exposition format.
//
// It is an unchecked collector: the record set is only known at gather time,
// so Describe sends nothing.
type snapshotCollector struct {
	registry *registry.Registry
	log      logr.Logger
}

var _ prometheus.Collector = (*snapshotCollector)(nil)

func (c *snapshotCollector) Describe(_ chan<- *prometheus.Desc) {}

func (c *snapshotCollector) Collect(ch chan<- prometheus.Metric) {
	snap, ok := c.registry.Current()
	if !ok {
		return
	}

	for _, record := range snap.Records {
		m, err := constMetric(record)
		if err != nil {
			c.log.Error(err, "skipping record", "name", record.Name)
			continue
		}

		ch <- m
	}
}

// constMetric converts one record into a prometheus metric, with label keys
// sorted so equal label sets always produce the same descriptor.
func constMetric(record collector.Record) (prometheus.Metric, error) {
	keys := make([]string, 0, len(record.Labels))
	for k := range record.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = record.Labels[k]
	}

	kind := prometheus.GaugeValue
	if record.Kind == collector.Counter {
		kind = prometheus.CounterValue
	}

	return prometheus.NewConstMetric(
		prometheus.NewDesc(record.Name, record.Help, keys, nil),
		kind, record.Value, values...,
	)
}
