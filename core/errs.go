package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTopic           = errors.New("invalid topic")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrSubscriberNotFound     = errors.New("subscriber not found")
	ErrMarketDataUnavailable  = errors.New("market data unavailable")
	ErrConfigInvalid          = errors.New("invalid configuration")
	ErrDeliveryRetryExhausted = errors.New("delivery retry limit reached")
)

// SourceError reports a single feed failure. The poll cycle continues
// with the remaining sources.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// DispatchError reports a delivery that was dropped after exhausting its
// retry budget. The subscriber's LastDeliveredAt is not advanced, so the
// missed window is merged into the next successful delivery.
type DispatchError struct {
	ChatID   int64
	Attempts int
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %d failed after %d attempts: %v", e.ChatID, e.Attempts, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
