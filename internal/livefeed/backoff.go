package livefeed

import (
	"math"
	"time"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
)

const (
	backoffBase = 2 * time.Second
	backoffCap  = 2 * time.Minute
)

// Backoff is the wait before the next insert after failures consecutive errors:
// 2s, 4s, 8s... capped at two minutes, plus up to 250ms of jitter.
func Backoff(failures int, rng metric.Random) time.Duration {
	if failures < 1 {
		failures = 1
	}

	multiple := math.Pow(2, float64(failures-1))
	delay := time.Duration(float64(backoffBase) * multiple)

	if delay > backoffCap || delay <= 0 {
		delay = backoffCap
	}

	delay += time.Duration(rng.IntN(250)) * time.Millisecond
	return delay
}
