package infra

import "time"

const (
	backoffBase = 500 * time.Millisecond
	backoffMax  = 30 * time.Second
)

// CalculateBackoff returns an exponential delay for the given retry count.
// Shared by the WS reconnect loops and the leg-2 re-submit policy.
func CalculateBackoff(retry int) time.Duration {
	if retry < 1 {
		return backoffBase
	}
	if retry > 10 { // 500ms << 10 already clears the cap
		retry = 10
	}
	delay := backoffBase << uint(retry)
	if delay > backoffMax {
		return backoffMax
	}
	return delay
}
