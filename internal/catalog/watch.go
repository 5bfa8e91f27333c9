package catalog

import (
	"github.com/amaumene/moviebrowser/internal/metrics"
	"github.com/amaumene/moviebrowser/internal/observable"
	"github.com/sirupsen/logrus"
)

// CollectionSubscription keeps a collection observer registered
type CollectionSubscription = observable.Subscription[observable.CollectionObserver]

type collectionSubject interface {
	Subscribe(observable.CollectionObserver) *CollectionSubscription
}

// collectionWatcher counts and logs the changes of one collection
type collectionWatcher struct {
	name   string
	logger logrus.FieldLogger
}

func (w *collectionWatcher) OnCollectionUpdate(_ any, event observable.CollectionEvent) {
	metrics.CollectionEvents.WithLabelValues(w.name, event.Action.String()).Inc()

	fields := logrus.Fields{"action": event.Action.String()}
	if m, ok := event.Item.(*Movie); ok {
		fields["movie_id"] = m.ID()
	}
	if len(event.Range) > 0 {
		fields["count"] = len(event.Range)
	}
	w.logger.WithFields(fields).Debug("Collection changed")
}

// WatchCollection counts the changes of c under name. The watch lasts as long
// as the returned subscription is reachable.
func WatchCollection(name string, c collectionSubject, logger logrus.FieldLogger) *CollectionSubscription {
	return c.Subscribe(&collectionWatcher{
		name:   name,
		logger: logger.WithField("collection", name),
	})
}
