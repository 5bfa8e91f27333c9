package tmdb

import (
	"errors"
	"net/http"
	"time"

	"github.com/amaumene/moviebrowser/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

const breakerName = "tmdb-api"

// newBreaker opens the circuit after breakAfter consecutive failed round trips
// and lets one request through again after openFor. breakAfter <= 0 keeps the circuit closed.
func newBreaker(breakAfter int, openFor time.Duration, logger *logrus.Logger) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return breakAfter > 0 && counts.ConsecutiveFailures >= uint32(breakAfter)
		},
		// A client error means the API is up
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < 500 && statusErr.StatusCode != http.StatusTooManyRequests
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.Set(float64(to))
			entry := logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			if to == gobreaker.StateOpen {
				entry.Warn("TMDB circuit opened")
				return
			}
			entry.Info("TMDB circuit state changed")
		},
	})
}

// isBreakerRejection reports whether err was returned without calling the API
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
