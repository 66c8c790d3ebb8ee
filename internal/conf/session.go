package conf

import (
	"fmt"
	"mapletap/internal/flog"
	"time"
)

type Session struct {
	IdleTimeoutMs      int `yaml:"idle_timeout_ms"`
	MaxPendingSegments int `yaml:"max_pending_segments"`
	MaxBufferBytes     int `yaml:"max_buffer_bytes"`
}

func (s *Session) setDefaults() {
	if s.IdleTimeoutMs == 0 {
		s.IdleTimeoutMs = 5000 // 5s
	}
	if s.MaxPendingSegments == 0 {
		s.MaxPendingSegments = 4096
	}
	if s.MaxBufferBytes == 0 {
		s.MaxBufferBytes = 16 * 1024 * 1024
	}
}

func (s *Session) validate() []error {
	var errors []error

	if s.IdleTimeoutMs < 100 || s.IdleTimeoutMs > 3600000 {
		errors = append(errors, fmt.Errorf("session idle_timeout_ms must be between 100 and 3600000"))
	}

	if s.MaxPendingSegments < 1 || s.MaxPendingSegments > 1000000 {
		errors = append(errors, fmt.Errorf("session max_pending_segments must be between 1 and 1000000"))
	}

	if s.MaxBufferBytes < 128*1024 {
		errors = append(errors, fmt.Errorf("session max_buffer_bytes must be >= 131072 bytes"))
	}

	if s.MaxBufferBytes > 1024*1024*1024 {
		flog.Warnf("session max_buffer_bytes is very high (%d) - a corrupt stream may exhaust memory", s.MaxBufferBytes)
	}

	return errors
}

func (s *Session) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMs) * time.Millisecond
}
