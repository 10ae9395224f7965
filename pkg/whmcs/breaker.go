package whmcs

import (
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/chainsafe/billing-bridge/internal/metrics"
)

const breakerName = "whmcs-api"

// newBreaker builds the circuit breaker guarding the HTTP exchange.
// It opens after a 60% failure rate over at least 10 requests, waits 2 minutes
// before probing, and lets 3 requests through while half-open.
func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				logger.Warn("Opening WHMCS circuit breaker",
					zap.Uint32("failures", counts.TotalFailures),
					zap.Float64("failure_rate", ratio*100))
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("WHMCS circuit breaker state transition",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: countsAsSuccess,
	})
}

// countsAsSuccess keeps client-side HTTP statuses from tripping the breaker;
// only transport failures and 5xx replies indicate an unhealthy endpoint.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	apiErr, ok := AsError(err)
	if !ok {
		return false
	}
	return apiErr.Code == CodeHTTP && apiErr.Status < http.StatusInternalServerError
}

func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
