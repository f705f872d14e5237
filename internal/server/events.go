package server

import (
	"encoding/base64"

	"github.com/renato0307/forge/internal/ports"
)

// EventSink publishes supervisor events on the SSE stream. PTY chunks are
// base64-encoded since they are raw terminal bytes, not guaranteed UTF-8.
type EventSink struct {
	broadcaster *Broadcaster
}

// Compile-time interface verification
var _ ports.EventSink = (*EventSink)(nil)

// NewEventSink creates an EventSink publishing through b
func NewEventSink(b *Broadcaster) *EventSink {
	return &EventSink{broadcaster: b}
}

type shellDataEvent struct {
	PtyID string `json:"ptyId"`
	Chunk string `json:"chunk"`
}

type shellExitEvent struct {
	PtyID string `json:"ptyId"`
	Code  int    `json:"code"`
}

func (s *EventSink) ShellData(ptyID string, chunk []byte) {
	s.broadcaster.Publish("shell.data", shellDataEvent{
		PtyID: ptyID,
		Chunk: base64.StdEncoding.EncodeToString(chunk),
	})
}

func (s *EventSink) ShellExit(ptyID string, code int) {
	s.broadcaster.Publish("shell.exit", shellExitEvent{PtyID: ptyID, Code: code})
}

func (s *EventSink) ContinuationIteration(ev ports.ContinuationIteration) {
	s.broadcaster.Publish("continuation.iteration", ev)
}

func (s *EventSink) ContinuationDone(ev ports.ContinuationDone) {
	s.broadcaster.Publish("continuation.done", ev)
}

func (s *EventSink) ContinuationMaxReached(ev ports.ContinuationMaxReached) {
	s.broadcaster.Publish("continuation.maxReached", ev)
}

func (s *EventSink) EnsembleProgress(ev ports.EnsembleProgress) {
	s.broadcaster.Publish("ensemble.progress", ev)
}

func (s *EventSink) EnsembleDone(ev ports.EnsembleDone) {
	s.broadcaster.Publish("ensemble.done", ev)
}
