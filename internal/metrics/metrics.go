package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search Metrics
var (
	SearchesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSearchesIssued,
			Help: HelpTextSearchesIssued,
		},
	)

	SearchesCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSearchesCancelled,
			Help: HelpTextSearchesCancelled,
		},
	)

	SearchesDebounced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSearchesDebounced,
			Help: HelpTextSearchesDebounced,
		},
	)
)

// Collection Metrics
var (
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePagesFetched,
			Help: HelpTextPagesFetched,
		},
		[]string{LabelOutcome},
	)

	DuplicatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameDuplicatesDropped,
			Help: HelpTextDuplicatesDropped,
		},
	)
)

// Mutation Metrics
var (
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameMutations,
			Help: HelpTextMutations,
		},
		[]string{LabelAction, LabelOutcome},
	)

	FullRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameFullRefreshes,
			Help: HelpTextFullRefreshes,
		},
	)
)

// Purchase Metrics
var (
	PacksBought = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePacksBought,
			Help: HelpTextPacksBought,
		},
		[]string{LabelOutcome},
	)

	PacksOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePacksOpened,
			Help: HelpTextPacksOpened,
		},
		[]string{LabelOutcome},
	)
)

// Relay Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)
