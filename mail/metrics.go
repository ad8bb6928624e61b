package mail

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var emailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "paddlewebhook_emails_total",
	Help: "Outbound emails by template and delivery status.",
}, []string{"template", "status"})
