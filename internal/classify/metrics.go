package classify

import "github.com/prometheus/client_golang/prometheus"

// classifications counts Analyze calls by outcome: "ok" or a fallback Reason.
var classifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "complaint_classifications_total",
		Help: "Complaint classifications by outcome (ok or fallback reason).",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(classifications)
}
