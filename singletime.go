package vkframe

import (
	"github.com/pkg/errors"
)

var (
	// ErrCommandsPending is returned by Begin while a previous recording has
	// not been submitted.
	ErrCommandsPending = errors.New("single time commands already recording")
	// ErrNoCommands is returned by Submit without a matching Begin.
	ErrNoCommands = errors.New("single time commands not recording")
)

// SingleTimeCommands records one command buffer, submits it and blocks
// until the queue is idle. It can be reused for any number of Begin and
// Submit pairs.
type SingleTimeCommands struct {
	driver Driver
	pool   *CommandPool
	queue  *Queue
	cb     *CommandBuffer
}

func NewSingleTimeCommands(d Driver, pool *CommandPool, queue *Queue) *SingleTimeCommands {
	return &SingleTimeCommands{driver: d, pool: pool, queue: queue}
}

// Begin allocates a command buffer and starts recording it for one
// submission.
func (s *SingleTimeCommands) Begin() (*CommandBuffer, error) {
	if s.cb != nil {
		return nil, ErrCommandsPending
	}
	cbs, err := s.driver.AllocateCommandBuffers(s.pool, 1)
	if err != nil {
		return nil, err
	}
	if err := s.driver.BeginCommandBuffer(cbs[0], true); err != nil {
		s.driver.FreeCommandBuffers(s.pool, cbs...)
		return nil, err
	}
	s.cb = cbs[0]
	return s.cb, nil
}

// Submit ends the recording, submits it, waits for the queue to go idle and
// frees the command buffer. The buffer is freed even when a step fails.
func (s *SingleTimeCommands) Submit() error {
	if s.cb == nil {
		return ErrNoCommands
	}
	cb := s.cb
	s.cb = nil
	defer s.driver.FreeCommandBuffers(s.pool, cb)

	if err := s.driver.EndCommandBuffer(cb); err != nil {
		return err
	}
	err := s.driver.QueueSubmit(s.queue, Submission{CommandBuffers: []*CommandBuffer{cb}})
	if err != nil {
		return err
	}
	return s.driver.QueueWaitIdle(s.queue)
}

// Abort drops a recording without submitting it.
func (s *SingleTimeCommands) Abort() {
	if s.cb == nil {
		return
	}
	s.driver.FreeCommandBuffers(s.pool, s.cb)
	s.cb = nil
}

// Run records with record and submits. A record error aborts the recording.
func (s *SingleTimeCommands) Run(record func(cb *CommandBuffer) error) error {
	cb, err := s.Begin()
	if err != nil {
		return err
	}
	if err := record(cb); err != nil {
		s.Abort()
		return err
	}
	return s.Submit()
}
