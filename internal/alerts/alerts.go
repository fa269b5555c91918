// Package alerts implements a price-alert scanner: user-configured
// trigger prices that fire once against the live bid/ask and then remove
// themselves. This is the "alert scanner" reader spec.md §5 names as a
// consumer of shared state alongside the renderer, not otherwise given a
// concrete shape there. Ground truth: the original implementation's alerts
// model.
package alerts

import (
	"sync"

	"github.com/shopspring/decimal"
)

// TriggerType is the comparison an Alert fires on.
type TriggerType int

const (
	// Gte fires once the ask reaches or exceeds the alert price.
	Gte TriggerType = iota
	// Lte fires once the bid reaches or falls below the alert price.
	Lte
)

// Alert is a single armed price trigger.
type Alert struct {
	Trigger TriggerType
	Price   decimal.Decimal
}

// Alerts is a set of armed price alerts for one symbol.
type Alerts struct {
	mu            sync.Mutex
	armed         []Alert
	lastTriggered *Alert
}

// New returns an empty alert set.
func New() *Alerts {
	return &Alerts{}
}

// Add arms a new alert.
func (a *Alerts) Add(price decimal.Decimal, trigger TriggerType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed = append(a.armed, Alert{Trigger: trigger, Price: price})
}

// Scan checks every armed alert against the current bid/ask, removes any
// that fire, and returns the ones that fired this call.
func (a *Alerts) Scan(bid, ask decimal.Decimal) []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	var fired []Alert
	remaining := a.armed[:0]
	for _, al := range a.armed {
		triggered := false
		switch al.Trigger {
		case Gte:
			triggered = ask.GreaterThanOrEqual(al.Price)
		case Lte:
			triggered = bid.LessThanOrEqual(al.Price)
		}
		if triggered {
			cp := al
			a.lastTriggered = &cp
			fired = append(fired, al)
		} else {
			remaining = append(remaining, al)
		}
	}
	a.armed = remaining
	return fired
}

// LastTriggered returns the most recently fired alert, if any.
func (a *Alerts) LastTriggered() (Alert, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastTriggered == nil {
		return Alert{}, false
	}
	return *a.lastTriggered, true
}

// Clear removes all armed alerts and forgets the last-triggered one.
func (a *Alerts) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed = nil
	a.lastTriggered = nil
}
