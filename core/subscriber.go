package core

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is a subscriber's delivery tier.
type Frequency string

const (
	FrequencyHourly   Frequency = "hourly"
	FrequencyDaily    Frequency = "daily"
	FrequencyBreaking Frequency = "breaking"
)

// ParseFrequency validates a user-provided frequency name.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyHourly:
		return FrequencyHourly, nil
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyBreaking:
		return FrequencyBreaking, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

// Interval returns the minimum elapsed time between deliveries for the
// tier. The breaking tier has no interval gate; it is triggered by
// high-impact items instead.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Subscriber is one chat's delivery preferences. Topics and Frequency
// change only through explicit preference commands; LastDeliveredAt is
// advanced only by the dispatcher after a confirmed send.
type Subscriber struct {
	ChatID          int64     `json:"chat_id"`
	Topics          []Topic   `json:"topics"`
	Frequency       Frequency `json:"frequency"`
	LastDeliveredAt time.Time `json:"last_delivered_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WantsAll reports whether the subscriber follows every topic.
func (s *Subscriber) WantsAll() bool {
	return len(s.Topics) == 0
}

// Follows reports whether the subscriber's topic set intersects the
// item's tag set. An empty topic set means "all topics".
func (s *Subscriber) Follows(item NewsItem) bool {
	if s.WantsAll() {
		return true
	}
	for _, topic := range s.Topics {
		if item.HasTag(topic) {
			return true
		}
	}
	return false
}

// DeliveryJob is one unit of scheduled work: these items, for this chat,
// for this half-open time window. Consumed exactly once by the digest
// composer and then discarded.
type DeliveryJob struct {
	ChatID int64
	Items  []ScoredItem
	From   time.Time
	To     time.Time
}
