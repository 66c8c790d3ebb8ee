package session

import (
	"sort"
	"time"

	"mapletap/internal/capture"
	"mapletap/internal/protocol"
)

// Registry owns the sessions of one capture. It is not safe for concurrent
// use; segments are handled one at a time in capture order.
type Registry struct {
	cfg      Config
	sessions map[capture.FlowKey]*Session
}

func NewRegistry(cfg Config) *Registry {
	cfg.setDefaults()
	return &Registry{
		cfg:      cfg,
		sessions: make(map[capture.FlowKey]*Session),
	}
}

// Handle routes seg to its session. A plain SYN opens a session, replacing a
// terminated one on the same flow; segments of unknown flows are ignored and
// yield a nil session. Sessions that ask to be closed are removed.
func (r *Registry) Handle(seg *capture.Segment) (*Session, Result, []*protocol.Packet, error) {
	key := seg.Flow()
	s, ok := r.sessions[key]
	if seg.SYN && !seg.ACK && (!ok || s.Terminated()) {
		s = New(r.cfg)
		r.sessions[key] = s
		ok = true
	}
	if !ok {
		return nil, ResultContinue, nil, nil
	}

	res, packets, err := s.Process(seg)
	if res == ResultCloseMe {
		delete(r.sessions, key)
	}
	return s, res, packets, err
}

// Reap removes and returns the sessions that stayed empty past the idle timeout.
func (r *Registry) Reap(now time.Time) []*Session {
	var reaped []*Session
	for key, s := range r.sessions {
		if s.CloseMe(now) {
			delete(r.sessions, key)
			reaped = append(reaped, s)
		}
	}
	sortByStart(reaped)
	return reaped
}

// Sessions returns the live sessions ordered by start time.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sortByStart(out)
	return out
}

func (r *Registry) Len() int { return len(r.sessions) }

func sortByStart(s []*Session) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].startTime.Equal(s[j].startTime) {
			return s[i].startTime.Before(s[j].startTime)
		}
		return s[i].localEndpoint < s[j].localEndpoint
	})
}
