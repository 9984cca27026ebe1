package metrics

// ============================================================================
// Metric Names
// ============================================================================

// Search metric names
const (
	MetricNameSearchesIssued    = "searches_issued_total"
	MetricNameSearchesCancelled = "searches_cancelled_total"
	MetricNameSearchesDebounced = "searches_debounced_total"
)

// Collection metric names
const (
	MetricNamePagesFetched      = "inventory_pages_fetched_total"
	MetricNameDuplicatesDropped = "inventory_duplicates_dropped_total"
)

// Mutation metric names
const (
	MetricNameMutations     = "inventory_mutations_total"
	MetricNameFullRefreshes = "inventory_full_refreshes_total"
)

// Purchase metric names
const (
	MetricNamePacksBought = "packs_bought_total"
	MetricNamePacksOpened = "packs_opened_total"
)

// Relay metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

const (
	HelpTextSearchesIssued    = "Total number of remote searches issued"
	HelpTextSearchesCancelled = "Total number of in-flight searches cancelled by a newer one"
	HelpTextSearchesDebounced = "Total number of scheduled searches replaced before firing"

	HelpTextPagesFetched      = "Total number of inventory pages fetched"
	HelpTextDuplicatesDropped = "Total number of incoming items dropped by id dedup"

	HelpTextMutations     = "Total number of item mutations by action and outcome"
	HelpTextFullRefreshes = "Total number of full-refresh recoveries"

	HelpTextPacksBought = "Total number of pack buy attempts"
	HelpTextPacksOpened = "Total number of pack open attempts"

	HelpTextEventsPublished    = "Total number of relay events published"
	HelpTextEventHandlerErrors = "Total number of relay handler errors"
)

// ============================================================================
// Label Names and Values
// ============================================================================

const (
	LabelAction  = "action"
	LabelOutcome = "outcome"
	LabelType    = "type"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
