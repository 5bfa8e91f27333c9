// Package observable provides change notification with weakly held subscribers.
//
// A subscriber receives a *Subscription token when it registers. The registry
// only keeps a weak pointer to the token, and the token keeps the observer
// alive, so a subscriber that drops its token without unsubscribing is silently
// removed once the token is collected. Explicit Unsubscribe is always possible.
//
// Notifications only fire after SetChanged. Clearing the flag and taking the
// snapshot of live subscribers happen in one critical section; delivery runs
// outside the lock. A panicking observer is recovered and logged, and the
// remaining observers still receive the notification.
package observable

import (
	"fmt"
	"reflect"
	"sync"
	"weak"

	"github.com/sirupsen/logrus"
)

// Subscription is the token returned by Subscribe. Keep it for as long as
// notifications are wanted.
type Subscription[O any] struct {
	observer O
	owner    *Observable[O]
}

// Observer returns the subscribed observer
func (s *Subscription[O]) Observer() O {
	return s.observer
}

// Unsubscribe removes the subscription from its observable
func (s *Subscription[O]) Unsubscribe() {
	if s == nil || s.owner == nil {
		return
	}
	s.owner.Unsubscribe(s)
}

// Observable is a registry of weakly held subscriptions plus a changed flag.
// The zero value is ready to use and logs to the standard logrus logger.
type Observable[O any] struct {
	mu      sync.Mutex
	publish sync.Mutex
	subs    []weak.Pointer[Subscription[O]]
	changed bool
	logger  logrus.FieldLogger
}

// SetLogger sets the logger used for observer failures
func (o *Observable[O]) SetLogger(logger logrus.FieldLogger) {
	o.mu.Lock()
	o.logger = logger
	o.mu.Unlock()
}

// Subscribe registers observer and returns its token. Registering an observer
// that is already subscribed returns the existing token.
func (o *Observable[O]) Subscribe(observer O) *Subscription[O] {
	if isNil(observer) {
		panic("observable: nil observer")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, ptr := range o.subs {
		if sub := ptr.Value(); sub != nil && sameObserver(sub.observer, observer) {
			return sub
		}
	}

	sub := &Subscription[O]{observer: observer, owner: o}
	o.subs = append(o.subs, weak.Make(sub))
	return sub
}

// Unsubscribe removes the given subscription
func (o *Observable[O]) Unsubscribe(sub *Subscription[O]) {
	if sub == nil {
		return
	}
	target := weak.Make(sub)

	o.mu.Lock()
	defer o.mu.Unlock()

	for i, ptr := range o.subs {
		if ptr == target {
			o.subs = append(o.subs[:i], o.subs[i+1:]...)
			return
		}
	}
}

// DeleteObserver removes every subscription of observer
func (o *Observable[O]) DeleteObserver(observer O) {
	o.mu.Lock()
	defer o.mu.Unlock()

	kept := o.subs[:0]
	for _, ptr := range o.subs {
		sub := ptr.Value()
		if sub == nil || sameObserver(sub.observer, observer) {
			continue
		}
		kept = append(kept, ptr)
	}
	clear(o.subs[len(kept):])
	o.subs = kept
}

// DeleteAllObservers removes every subscription
func (o *Observable[O]) DeleteAllObservers() {
	o.mu.Lock()
	o.subs = nil
	o.mu.Unlock()
}

// Count returns the number of live subscriptions
func (o *Observable[O]) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	count := 0
	for _, ptr := range o.subs {
		if ptr.Value() != nil {
			count++
		}
	}
	return count
}

// SetChanged marks the observable as changed; the next notification will fire.
func (o *Observable[O]) SetChanged() {
	o.mu.Lock()
	o.changed = true
	o.mu.Unlock()
}

// HasChanged reports whether SetChanged was called since the last notification
func (o *Observable[O]) HasChanged() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.changed
}

// Notify calls deliver for each live observer if the changed flag is set.
// It reports whether a notification round happened.
func (o *Observable[O]) Notify(deliver func(O)) bool {
	observers, logger, ok := o.snapshot()
	if !ok {
		return false
	}

	for _, observer := range observers {
		o.deliver(logger, observer, deliver)
	}
	return true
}

// Publish sets the changed flag and notifies. Concurrent Publish calls are
// serialized so that no round is swallowed by another caller clearing the flag.
// An observer must not Publish on the same observable from inside deliver.
func (o *Observable[O]) Publish(deliver func(O)) {
	o.publish.Lock()
	defer o.publish.Unlock()

	o.SetChanged()
	o.Notify(deliver)
}

// snapshot clears the changed flag, prunes dead subscriptions and returns the
// live observers.
func (o *Observable[O]) snapshot() ([]O, logrus.FieldLogger, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.changed {
		return nil, nil, false
	}
	o.changed = false

	logger := o.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if len(o.subs) == 0 {
		return nil, logger, true
	}

	observers := make([]O, 0, len(o.subs))
	kept := o.subs[:0]
	for _, ptr := range o.subs {
		sub := ptr.Value()
		if sub == nil {
			continue
		}
		kept = append(kept, ptr)
		observers = append(observers, sub.observer)
	}
	clear(o.subs[len(kept):])
	o.subs = kept

	return observers, logger, true
}

func (o *Observable[O]) deliver(logger logrus.FieldLogger, observer O, deliver func(O)) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"observer": fmt.Sprintf("%T", observer),
				"panic":    r,
			}).Error("Observer failed during notification")
		}
	}()
	deliver(observer)
}

// sameObserver compares observers by identity. Non-comparable observers are
// never considered equal.
func sameObserver[O any](a, b O) bool {
	va, vb := any(a), any(b)
	ta := reflect.TypeOf(va)
	if ta == nil || ta != reflect.TypeOf(vb) || !ta.Comparable() {
		return false
	}
	return va == vb
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
