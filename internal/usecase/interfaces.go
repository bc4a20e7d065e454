package usecase

// LifecycleMetrics receives one observation per lifecycle operation.
type LifecycleMetrics interface {
	ObserveLifecycle(operation string, err error)
	SubscriptionOpened()
	SubscriptionClosed()
}

type nopMetrics struct{}

func (nopMetrics) ObserveLifecycle(string, error) {}
func (nopMetrics) SubscriptionOpened()            {}
func (nopMetrics) SubscriptionClosed()            {}
