package market

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Signal is a window edge announced to the rest of the system.
type Signal int

const (
	SignalOpen Signal = iota
	SignalClose
)

func (s Signal) String() string {
	if s == SignalOpen {
		return "open"
	}
	return "close"
}

// Scheduler fires the transfer-window open and close signals on a cron
// schedule. The receiving side decides what a signal means per league;
// the scheduler only keeps time.
type Scheduler struct {
	cron      *cron.Cron
	log       *zap.Logger
	broadcast func(Signal)
}

// NewScheduler wires the broadcast callback the signals are delivered
// through. Specs use six fields, seconds first.
func NewScheduler(log *zap.Logger, broadcast func(Signal)) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		log:       log,
		broadcast: broadcast,
	}
}

// Register installs the open and close cron expressions.
func (s *Scheduler) Register(openSpec, closeSpec string) error {
	if _, err := s.cron.AddFunc(openSpec, s.TriggerOpen); err != nil {
		return fmt.Errorf("register open spec %q: %w", openSpec, err)
	}
	if _, err := s.cron.AddFunc(closeSpec, s.TriggerClose); err != nil {
		return fmt.Errorf("register close spec %q: %w", closeSpec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("transfer window schedule started")
}

// Stop halts the schedule. Signals already being delivered finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("transfer window schedule stopped")
}

// TriggerOpen forces the open signal outside the schedule. Exposed for
// operators and tests.
func (s *Scheduler) TriggerOpen() {
	s.log.Info("transfer window opening")
	s.broadcast(SignalOpen)
}

// TriggerClose forces the close signal outside the schedule.
func (s *Scheduler) TriggerClose() {
	s.log.Info("transfer window closing")
	s.broadcast(SignalClose)
}
