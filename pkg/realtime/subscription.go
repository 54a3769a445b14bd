package realtime

import (
	"sync"
	"sync/atomic"
)

// State - жизненный цикл подписки.
type State int32

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unsubscribed"
	}
}

// Handler вызывается для каждого события изменения, в порядке доставки.
type Handler func(event ChangeEvent)

// ErrorHandler вызывается при ошибках транспорта. Не фатально:
// подписка помечается закрытой, состояние остается устаревшим до переподписки.
type ErrorHandler func(err error)

// Subscription - одна активная подписка на канал изменений.
// Владеет ею исключительно создавшее её реле.
type Subscription interface {
	ID() string
	Topic() string
	State() State
	Unsubscribe() error
}

const eventBuffer = 64

type subscription struct {
	id      string
	topic   string
	client  *Client
	onEvent Handler
	onError ErrorHandler

	state  atomic.Int32
	events chan ChangeEvent
	quit   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	joined   chan struct{}
	joinOnce sync.Once
	joinErr  chan error
	errOnce  sync.Once
}

func newSubscription(id, topic string, client *Client, onEvent Handler, onError ErrorHandler) *subscription {
	s := &subscription{
		id:      id,
		topic:   topic,
		client:  client,
		onEvent: onEvent,
		onError: onError,
		events:  make(chan ChangeEvent, eventBuffer),
		quit:    make(chan struct{}),
		joined:  make(chan struct{}),
		joinErr: make(chan error, 1),
	}
	s.state.Store(int32(StateSubscribing))
	return s
}

func (s *subscription) ID() string    { return s.id }
func (s *subscription) Topic() string { return s.topic }

func (s *subscription) State() State {
	return State(s.state.Load())
}

// run - горутина диспетчеризации: события одной подписки
// обрабатываются последовательно, в порядке доставки фида.
func (s *subscription) run() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.quit:
				return
			case ev := <-s.events:
				s.onEvent(ev)
			}
		}
	}()
}

// deliver кладет событие в очередь подписки. После Unsubscribe - молча отбрасывает.
func (s *subscription) deliver(ev ChangeEvent) {
	select {
	case <-s.quit:
	case s.events <- ev:
	}
}

func (s *subscription) markActive() {
	s.state.CompareAndSwap(int32(StateSubscribing), int32(StateActive))
	s.joinOnce.Do(func() { close(s.joined) })
}

func (s *subscription) fail(err error) {
	s.state.Store(int32(StateClosed))
	select {
	case s.joinErr <- err:
	default:
	}
	if s.onError != nil {
		s.errOnce.Do(func() { s.onError(err) })
	}
}

// Unsubscribe освобождает подписку. Идемпотентен. После возврата
// обработчик событий гарантированно больше не вызывается:
// метод дожидается завершения горутины диспетчеризации, поэтому его
// нельзя вызывать из самого обработчика.
func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.quit)
		s.client.leave(s)
	})
	s.wg.Wait()
	return nil
}

// shutdown - закрытие со стороны клиента (обрыв соединения), без phx_leave.
func (s *subscription) shutdown(err error) {
	s.once.Do(func() {
		close(s.quit)
	})
	s.fail(err)
}
