//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"mcserve/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry holds the sinks of live subscribers, which come and go.
type IRegistry interface {
	Subscribe(subscriberID string, sink EventSink)
	Unsubscribe(subscriberID string)
	Sinks() []EventSink
}

// ServerControl is the narrow handle on the running server process.
// Writes are fire-and-forget: nothing confirms the server acted on them.
type ServerControl interface {
	SendLine(text string)
	Stop()
}

// LifecycleObserver is told when a server process is spawned and when it exits.
type LifecycleObserver interface {
	ProcessStarted(pid int)
	ProcessExited(pid int, err error)
}

type ProcessControl interface {
	RequestShutdown()
}
