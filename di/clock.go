package di

import "github.com/jonboulle/clockwork"

func provideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}
