package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// AsynqClient enqueues tasks into Redis through asynq. Tasks are never
// retried and identical payloads are de-duplicated for uniqueTTL.
type AsynqClient struct {
	client    *asynq.Client
	uniqueTTL time.Duration
}

var _ Client = (*AsynqClient)(nil)

// NewAsynqClient parses redisURL and builds a client.
func NewAsynqClient(redisURL string, uniqueTTL time.Duration) (*AsynqClient, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse REDIS_URL: %w", err)
	}
	return &AsynqClient{client: asynq.NewClient(opt), uniqueTTL: uniqueTTL}, nil
}

func (a *AsynqClient) Enqueue(ctx context.Context, t Task) error {
	if t.Type == "" {
		return errors.New("asynq: task type is required")
	}
	opts := []asynq.Option{asynq.MaxRetry(0)}
	if a.uniqueTTL > 0 {
		opts = append(opts, asynq.Unique(a.uniqueTTL))
	}
	_, err := a.client.EnqueueContext(ctx, asynq.NewTask(t.Type, t.Payload), opts...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		log.Printf("asynq: duplicate task dropped type=%s", t.Type)
		return nil
	}
	return err
}

func (a *AsynqClient) Close() error {
	return a.client.Close()
}

// AsynqServer runs registered handlers from Redis.
type AsynqServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

var _ Server = (*AsynqServer)(nil)

// NewAsynqServer builds a server consuming the default queue.
func NewAsynqServer(redisURL string, concurrency int) (*AsynqServer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse REDIS_URL: %w", err)
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Printf("asynq: task failed type=%s err=%v", task.Type(), err)
		}),
	})
	return &AsynqServer{server: srv, mux: asynq.NewServeMux()}, nil
}

func (s *AsynqServer) Register(taskType string, h Handler) {
	s.mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		return h.ProcessTask(ctx, Task{Type: t.Type(), Payload: t.Payload()})
	})
}

func (s *AsynqServer) Start() error {
	return s.server.Start(s.mux)
}

func (s *AsynqServer) Stop() {
	s.server.Shutdown()
}
