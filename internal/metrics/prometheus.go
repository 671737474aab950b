package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	descSessionsActive = prometheus.NewDesc(namespace+"_sessions_active", "Sessions currently running.", nil, nil)
	descSessionsTotal  = prometheus.NewDesc(namespace+"_sessions_total", "Sessions accepted since start.", nil, nil)
	descBytesIn        = prometheus.NewDesc(namespace+"_received_bytes_total", "Bytes read from control connections.", nil, nil)
	descBytesOut       = prometheus.NewDesc(namespace+"_sent_bytes_total", "Bytes written to control connections.", nil, nil)
	descCommands       = prometheus.NewDesc(namespace+"_commands_total", "Command lines handed to interpreters.", nil, nil)
	descPipelined      = prometheus.NewDesc(namespace+"_pipelined_reads_total", "Receives that carried more than one command.", nil, nil)
	descIdleTimeouts   = prometheus.NewDesc(namespace+"_idle_timeouts_total", "Sessions stopped for inactivity.", nil, nil)
	descBlocked        = prometheus.NewDesc(namespace+"_blocked_sessions_total", "Sessions ended by the lockout policy.", nil, nil)
	descErrors         = prometheus.NewDesc(namespace+"_session_errors_total", "Unclassified failures contained at a session worker boundary.", nil, nil)
)

var _ prometheus.Collector = (*Collector)(nil)

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		descSessionsActive, descSessionsTotal, descBytesIn, descBytesOut,
		descCommands, descPipelined, descIdleTimeouts, descBlocked, descErrors,
	} {
		ch <- d
	}
}

// Collect implements [prometheus.Collector].
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.Snapshot()
	ch <- prometheus.MustNewConstMetric(descSessionsActive, prometheus.GaugeValue, float64(s.SessionsActive))
	ch <- prometheus.MustNewConstMetric(descSessionsTotal, prometheus.CounterValue, float64(s.SessionsTotal))
	ch <- prometheus.MustNewConstMetric(descBytesIn, prometheus.CounterValue, float64(s.BytesIn))
	ch <- prometheus.MustNewConstMetric(descBytesOut, prometheus.CounterValue, float64(s.BytesOut))
	ch <- prometheus.MustNewConstMetric(descCommands, prometheus.CounterValue, float64(s.CommandsTotal))
	ch <- prometheus.MustNewConstMetric(descPipelined, prometheus.CounterValue, float64(s.PipelinedReads))
	ch <- prometheus.MustNewConstMetric(descIdleTimeouts, prometheus.CounterValue, float64(s.IdleTimeouts))
	ch <- prometheus.MustNewConstMetric(descBlocked, prometheus.CounterValue, float64(s.BlockedSessions))
	ch <- prometheus.MustNewConstMetric(descErrors, prometheus.CounterValue, float64(s.ErrorsTotal))
}

// Handler returns an HTTP handler serving c (plus the Go runtime and
// process collectors) in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
