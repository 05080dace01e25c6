package walletservice

import "github.com/sony/gobreaker"

var (
	// MaxNumOfFailingRequests is the number of requests that must be seen
	// before the breaker is allowed to trip.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the share of failed requests that trips the breaker.
	FailingRatio = 0.6
)

// NewCircuitBreaker returns a *gobreaker.CircuitBreaker that opens once more
// than MaxNumOfFailingRequests calls were made and at least FailingRatio of
// them failed. While open, calls fail without reaching the wallet service.
func NewCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "wallet-service",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
	})
}
