package service

import (
	"sync/atomic"
	"time"
)

// State — process-scoped health flags reported on the admin port.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected   atomic.Bool
	lastTickUnix  atomic.Int64 // unix seconds
	lastCycleUnix atomic.Int64
	cycleRunning  atomic.Bool
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) TouchCycle(t time.Time)  { s.lastCycleUnix.Store(t.Unix()) }
func (s *State) SetCycleRunning(v bool)  { s.cycleRunning.Store(v) }
func (s *State) CycleRunning() bool      { return s.cycleRunning.Load() }
func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
