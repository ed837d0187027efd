package queue

import (
	"context"
	"errors"
)

var (
	ErrQueueFull   = errors.New("queue: buffer is full")
	ErrQueueClosed = errors.New("queue: closed")
	ErrNoHandler   = errors.New("queue: no handler registered")
)

// Task is a unit of background work.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a task.
type Handler interface {
	ProcessTask(ctx context.Context, t Task) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, t Task) error

func (f HandlerFunc) ProcessTask(ctx context.Context, t Task) error {
	return f(ctx, t)
}

// Client hands tasks off for asynchronous execution.
type Client interface {
	Enqueue(ctx context.Context, t Task) error
}

// Server executes registered handlers until stopped.
type Server interface {
	Register(taskType string, h Handler)
	Start() error
	Stop()
}
