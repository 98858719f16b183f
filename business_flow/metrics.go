package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	programsProvisioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "programs_provisioned_total",
			Help: "Program provisioning attempts by result",
		},
		[]string{"result"},
	)

	bestEffortTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "best_effort_tasks_total",
			Help: "Post-commit best-effort tasks by task and result",
		},
		[]string{"task", "result"},
	)

	partnerInvites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_invites_total",
			Help: "Partner invitations processed during provisioning by result",
		},
		[]string{"result"},
	)
)
