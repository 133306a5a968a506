package eventemitter

// EventEmitter delivers every emitted message to every subscribed
// callback. Each subscriber drains its own queue on a dedicated
// goroutine, so emitters never run callbacks on their own stack.
type EventEmitter[T any] struct {
	subscribers []*Subscriber[T]
}

func (eventEmitter *EventEmitter[T]) Emit(message T) {
	for _, subscriber := range eventEmitter.subscribers {
		subscriber.enqueue(message)
	}
}

func (eventEmitter *EventEmitter[T]) Subscribe(callback func(T)) {
	eventEmitter.subscribers = append(eventEmitter.subscribers, newSubscriber(callback))
}

type Subscriber[T any] struct {
	inputQueue chan T
	callback   func(T)
}

func newSubscriber[T any](callback func(T)) *Subscriber[T] {
	instance := &Subscriber[T]{
		inputQueue: make(chan T, 1),
		callback:   callback,
	}
	go func() {
		for message := range instance.inputQueue {
			instance.callback(message)
		}
	}()
	return instance
}

func (subscriber *Subscriber[T]) enqueue(message T) {
	subscriber.inputQueue <- message
}
