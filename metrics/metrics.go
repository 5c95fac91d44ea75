package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const spNamespace = "sp"

var (
	sealsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: spNamespace,
		Name:      "seals_total",
		Help:      "Number of secret values sealed",
	})

	unsealsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: spNamespace,
		Name:      "unseals_total",
		Help:      "Number of secret values unsealed successfully",
	})

	unsealFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: spNamespace,
		Name:      "unseal_failures_total",
		Help:      "Number of unseal attempts that failed. Non-zero usually means tampered data or a key mismatch",
	})

	variableWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: spNamespace,
		Name:      "variable_writes_total",
		Help:      "Variable write operations by kind",
	}, []string{"op"})

	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: spNamespace,
		Name:      "template_renders_total",
		Help:      "Template render calls by outcome",
	}, []string{"status"})

	versionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: spNamespace,
		Name:      "workflow_versions_created_total",
		Help:      "Workflow versions written",
	})

	versionsPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: spNamespace,
		Name:      "workflow_versions_pruned_total",
		Help:      "Workflow versions removed by the retention sweep",
	})

	aiGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: spNamespace,
		Name:      "ai_generations_total",
		Help:      "AI generation requests by kind and outcome",
	}, []string{"kind", "status"})

	queueJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: spNamespace,
		Name:      "queue_jobs_total",
		Help:      "Background jobs by terminal status",
	}, []string{"status"})
)

func IncSeal()          { sealsTotal.Inc() }
func IncUnseal()        { unsealsTotal.Inc() }
func IncUnsealFailure() { unsealFailuresTotal.Inc() }

func IncVariableWrite(op string) { variableWritesTotal.WithLabelValues(op).Inc() }

func IncRenderOk()     { rendersTotal.WithLabelValues("ok").Inc() }
func IncRenderFailed() { rendersTotal.WithLabelValues("failed").Inc() }

func IncVersionCreated()          { versionsCreatedTotal.Inc() }
func AddVersionsPruned(n float64) { versionsPrunedTotal.Add(n) }

func IncAIGeneration(kind, status string) { aiGenerationsTotal.WithLabelValues(kind, status).Inc() }

func IncQueueJob(status string) { queueJobsTotal.WithLabelValues(status).Inc() }
