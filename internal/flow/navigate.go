package flow

import (
	"time"
)

// Navigator is the routing collaborator. The flow only requests a
// destination; it never performs routing itself.
type Navigator interface {
	Navigate(target string)
}

type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// ScheduleNavigation requests nav.Navigate(target) after delay.
//
// The returned cancel stops the pending navigation and is tied to the flow
// instance lifetime: a torn-down flow must call it so a stale mount never
// navigates. Cancel is safe to call more than once and after firing.
func ScheduleNavigation(nav Navigator, target string, delay time.Duration) (cancel func()) {
	timer := time.AfterFunc(delay, func() {
		nav.Navigate(target)
	})

	return func() {
		timer.Stop()
	}
}
