package observable

// Observer receives change notifications from a single object.
type Observer interface {
	OnUpdate(source any, data any)
}

// ObserverFunc adapts a function to Observer. Use a pointer to it when
// subscribing so the subscription can be matched by identity.
type ObserverFunc func(source any, data any)

// OnUpdate calls f
func (f *ObserverFunc) OnUpdate(source any, data any) {
	(*f)(source, data)
}

// ObjectObservable broadcasts changes of one object.
type ObjectObservable struct {
	Observable[Observer]
}

// NotifyObservers calls OnUpdate on every observer with data if the object
// has changed. source is passed through so observers can tell senders apart.
func (o *ObjectObservable) NotifyObservers(source any, data any) {
	o.Notify(func(observer Observer) {
		observer.OnUpdate(source, data)
	})
}

// NotifyChange sets the changed flag and notifies in one call.
func (o *ObjectObservable) NotifyChange(source any, data any) {
	o.Publish(func(observer Observer) {
		observer.OnUpdate(source, data)
	})
}
