package observable

// Action describes what happened to a collection
type Action int

const (
	ActionClear          Action = iota // collection cleared
	ActionAppendItem                   // item appended to the end
	ActionAppendRange                  // range of items added
	ActionAddItemToFront               // item added to the front
	ActionRemoveItem                   // item removed
	ActionUpdateItem                   // item updated in place
)

var actionNames = [...]string{
	ActionClear:          "clear",
	ActionAppendItem:     "append_item",
	ActionAppendRange:    "append_range",
	ActionAddItemToFront: "add_item_to_front",
	ActionRemoveItem:     "remove_item",
	ActionUpdateItem:     "update_item",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// CollectionEvent is the payload of a collection notification. Item is set for
// single-item actions, Range for ActionAppendRange.
type CollectionEvent struct {
	Action Action
	Item   any
	Range  []any
}

// CollectionObserver receives change notifications from a collection.
type CollectionObserver interface {
	OnCollectionUpdate(source any, event CollectionEvent)
}

// CollectionObservable broadcasts changes of a collection.
type CollectionObservable struct {
	Observable[CollectionObserver]
}

// NotifyObservers calls OnCollectionUpdate on every observer if the collection
// has changed.
func (o *CollectionObservable) NotifyObservers(source any, event CollectionEvent) {
	o.Notify(func(observer CollectionObserver) {
		observer.OnCollectionUpdate(source, event)
	})
}

// NotifyChange sets the changed flag and notifies in one call.
func (o *CollectionObservable) NotifyChange(source any, event CollectionEvent) {
	o.Publish(func(observer CollectionObserver) {
		observer.OnCollectionUpdate(source, event)
	})
}
