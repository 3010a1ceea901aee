package formz

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key form events.
type MetricsProvider interface {
	// OnStatusChange is called when a field transitions between statuses.
	OnStatusChange(field FieldKey, from, to Status)

	// OnLookup is called when the latest identifier lookup is applied.
	// Duration covers the collaborator call only, not the debounce wait.
	OnLookup(exists bool, duration time.Duration)

	// OnLookupDiscarded is called when a superseded lookup result arrives.
	OnLookupDiscarded()

	// OnLookupFailure is called when the lookup collaborator returns an error.
	OnLookupFailure(duration time.Duration)

	// OnSubmitSuccess is called when the catalog accepts a submission.
	OnSubmitSuccess(mode Mode, duration time.Duration)

	// OnSubmitFailure is called when a submission does not go through.
	// Stage is "validate" when the form was invalid and "catalog" when the
	// collaborator failed.
	OnSubmitFailure(stage string, duration time.Duration)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStatusChange(_ FieldKey, _, _ Status)    {}
func (NoOpMetricsProvider) OnLookup(_ bool, _ time.Duration)          {}
func (NoOpMetricsProvider) OnLookupDiscarded()                        {}
func (NoOpMetricsProvider) OnLookupFailure(_ time.Duration)           {}
func (NoOpMetricsProvider) OnSubmitSuccess(_ Mode, _ time.Duration)   {}
func (NoOpMetricsProvider) OnSubmitFailure(_ string, _ time.Duration) {}
