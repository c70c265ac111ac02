package eventpubsub

import (
	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
)

var bus = EventBus.New()

// Init replaces the process bus, dropping every subscriber.
func Init() {
	bus = EventBus.New()
}

func Publish(topic string, event interface{}) {
	bus.Publish(topic, event)
}

func Subscribe(topic string, callbackFn interface{}) error {
	if err := bus.SubscribeAsync(topic, callbackFn, false); err != nil {
		return err
	}

	log.Infof("Subscribed to topic %s", topic)
	return nil
}

func Unsubscribe(topic string, callbackFn interface{}) error {
	return bus.Unsubscribe(topic, callbackFn)
}

// WaitAsync blocks until every async handler has returned.
func WaitAsync() {
	bus.WaitAsync()
}
