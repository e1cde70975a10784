package checklist

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_checks_total",
			Help: "Automated checklist checks run, by item and result",
		},
		[]string{"item", "result"},
	)
	Ready = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "checklist_ready",
			Help: "1 when every critical checklist item is complete",
		},
	)
	CompletionPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "checklist_completion_percent",
			Help: "Share of checklist items complete, 0-100",
		},
	)
)

func init() {
	prometheus.MustRegister(ChecksTotal)
	prometheus.MustRegister(Ready)
	prometheus.MustRegister(CompletionPercent)
}

func recordCheck(item string, res CheckResult) {
	result := "fail"
	if res.Passed {
		result = "pass"
	}
	ChecksTotal.WithLabelValues(item, result).Inc()
}

func observeState(c *Catalog, s State) {
	st := ComputeStats(c, s)
	CompletionPercent.Set(float64(st.CompletionPercentage))
	if st.IsReadyForDeployment {
		Ready.Set(1)
	} else {
		Ready.Set(0)
	}
}
