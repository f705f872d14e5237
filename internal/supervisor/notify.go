package supervisor

import "time"

// armIdleTimerLocked (re)schedules the idle notification for a session;
// called with s.mu held on every output chunk.
func (s *Supervisor) armIdleTimerLocked(h *sessionHandle) {
	if t, ok := s.idleTimers[h.ptyID]; ok {
		t.Stop()
	}
	ptyID := h.ptyID
	s.idleTimers[ptyID] = time.AfterFunc(idleNotifyDelay, func() {
		s.fireIdleNotify(ptyID)
	})
}

// fireIdleNotify shows the "Agent Idle" notification when the session went
// quiet while the window is unfocused.
func (s *Supervisor) fireIdleNotify(ptyID string) {
	s.mu.Lock()
	delete(s.idleTimers, ptyID)
	h, ok := s.sessions[ptyID]
	hadOutput := ok && h.hadOutput
	s.mu.Unlock()

	if !ok || !hadOutput || s.focused.Load() {
		return
	}
	s.notify("Agent Idle", string(h.cliType)+" is waiting")
}

// cancelTimersLocked stops the goal-write and idle timers for a session;
// called with s.mu held.
func (s *Supervisor) cancelTimersLocked(ptyID string) {
	if t, ok := s.goalTimers[ptyID]; ok {
		t.Stop()
		delete(s.goalTimers, ptyID)
	}
	if t, ok := s.idleTimers[ptyID]; ok {
		t.Stop()
		delete(s.idleTimers, ptyID)
	}
}
