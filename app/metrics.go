package app

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "vote"

const (
	voteOutcomeCounted = "counted"
	voteOutcomeNoop    = "noop"
)

type appMetrics struct {
	txsTotal      *prometheus.CounterVec
	checkTxsTotal *prometheus.CounterVec
	votesTotal    *prometheus.CounterVec
	blockHeight   prometheus.Gauge
	blockTxs      prometheus.Histogram
}

func newAppMetrics(promRegistry prometheus.Registerer) *appMetrics {
	promautoFactory := promauto.With(promRegistry)
	m := &appMetrics{}
	m.txsTotal = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "txs_total",
		Help:      "transactions executed in finalized blocks by type and result code",
	}, []string{"type", "code"})
	m.checkTxsTotal = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "check_txs_total",
		Help:      "transactions checked for the mempool by type and result code",
	}, []string{"type", "code"})
	m.votesTotal = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "votes_total",
		Help:      "successful vote transactions by whether the tally changed",
	}, []string{"outcome"})
	m.blockHeight = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "block_height",
		Help:      "height of the last finalized block",
	})
	m.blockTxs = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "block_txs",
		Help:      "transactions per finalized block",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
	return m
}

func (m *appMetrics) tx(txType string, code uint32) {
	m.txsTotal.WithLabelValues(txType, strconv.FormatUint(uint64(code), 10)).Inc()
}

func (m *appMetrics) checkTx(txType string, code uint32) {
	m.checkTxsTotal.WithLabelValues(txType, strconv.FormatUint(uint64(code), 10)).Inc()
}

func (m *appMetrics) vote(counted bool) {
	if counted {
		m.votesTotal.WithLabelValues(voteOutcomeCounted).Inc()
	} else {
		m.votesTotal.WithLabelValues(voteOutcomeNoop).Inc()
	}
}
