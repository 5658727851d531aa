package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrQueueFull = errors.New("mail queue full, please try again later")

var ErrClosed = errors.New("mail client is shut down")

type Job struct {
	ID       string
	Message  Message
	Attempts int
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing mail job", "worker_id", w.ID, "job_id", job.ID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	Enabled     bool
	APIURL      string
	APIKey      string
	From        string
	Timeout     time.Duration
	MaxWorkers  int
	QueueSize   int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Client posts messages to an HTTP mail API from a bounded worker pool.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	ctx        context.Context
	cancel     context.CancelFunc
	abort      context.Context
	abortFn    context.CancelFunc
	wg         sync.WaitGroup
	dispatched chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewClient(config Config, logger *slog.Logger) *Client {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	abort, abortFn := context.WithCancel(context.Background())
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
		jobQueue:   make(chan Job, config.QueueSize),
		workerPool: make(chan chan Job, config.MaxWorkers),
		ctx:        ctx,
		cancel:     cancel,
		abort:      abort,
		abortFn:    abortFn,
		dispatched: make(chan struct{}),
	}

	for i := 0; i < config.MaxWorkers; i++ {
		NewWorker(i, c.workerPool, logger).Start(ctx, &c.wg, c.process)
	}
	go c.dispatch()

	logger.Info("mail worker pool started",
		"max_workers", config.MaxWorkers,
		"queue_size", config.QueueSize)
	return c
}

// dispatch hands queued jobs to idle workers until the queue is closed.
func (c *Client) dispatch() {
	defer close(c.dispatched)

	for job := range c.jobQueue {
		select {
		case jobChannel := <-c.workerPool:
			select {
			case jobChannel <- job:
			case <-c.ctx.Done():
				c.logger.Warn("mail dispatcher stopped with pending jobs", "job_id", job.ID)
				return
			}
		case <-c.ctx.Done():
			c.logger.Warn("mail dispatcher stopped with pending jobs", "job_id", job.ID)
			return
		}
	}
}

// Send queues msg for delivery without waiting for the API.
func (c *Client) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail recipient is required")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	job := Job{ID: uuid.New().String(), Message: msg}
	select {
	case c.jobQueue <- job:
		c.logger.Debug("mail job queued", "job_id", job.ID, "queue_length", len(c.jobQueue))
		return nil
	default:
		c.logger.Warn("mail queue full, rejecting message", "to", msg.To, "queue_capacity", cap(c.jobQueue))
		return ErrQueueFull
	}
}

// Shutdown stops accepting messages, delivers what is already queued, and
// waits for the workers. Pending jobs and retries are abandoned when ctx
// expires first.
func (c *Client) Shutdown(ctx context.Context) {
	c.logger.Info("shutting down mail client")

	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.jobQueue)
	}
	c.mu.Unlock()

	select {
	case <-c.dispatched:
	case <-ctx.Done():
	}
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		c.abortFn()
		<-done
	}
	c.abortFn()
	c.logger.Info("mail client shutdown complete")
}

func (c *Client) process(job Job) {
	for {
		job.Attempts++
		err := c.deliver(job)
		if err == nil {
			c.logger.Info("mail delivered", "job_id", job.ID, "to", job.Message.To, "attempts", job.Attempts)
			return
		}
		if job.Attempts >= c.config.MaxAttempts {
			c.logger.Error("mail delivery failed, giving up",
				"error", err,
				"job_id", job.ID,
				"to", job.Message.To,
				"attempts", job.Attempts)
			return
		}
		c.logger.Warn("mail delivery failed, retrying", "error", err, "job_id", job.ID, "attempts", job.Attempts)

		select {
		case <-time.After(c.config.RetryDelay * time.Duration(job.Attempts)):
		case <-c.abort.Done():
			c.logger.Warn("mail retry cancelled", "job_id", job.ID)
			return
		}
	}
}

func (c *Client) deliver(job Job) error {
	payload := map[string]interface{}{
		"id":      job.ID,
		"from":    c.config.From,
		"to":      job.Message.To,
		"subject": job.Message.Subject,
		"text":    job.Message.Body,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.abort, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}
	return nil
}
