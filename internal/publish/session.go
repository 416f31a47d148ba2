package publish

import (
	"context"
	"frameshot/internal/device"

	"golang.org/x/xerrors"
)

type sessionState int

const (
	sessionNew sessionState = iota
	sessionOpen
	sessionClosed
)

// Session is the single device connection of a run. It opens at most once
// and, once opened, closes exactly once.
type Session struct {
	Host   string
	client device.Client
	state  sessionState
}

func NewSession(host string, client device.Client) *Session {
	return &Session{
		Host:   host,
		client: client,
	}
}

// Open connects to the device. A failed attempt still counts as opened so
// that Close releases whatever the client may hold.
func (s *Session) Open(ctx context.Context) error {
	if s.state != sessionNew {
		return ConnectionError(xerrors.Errorf("session to %s cannot be reopened", s.Host))
	}
	s.state = sessionOpen
	if err := s.client.Connect(ctx); err != nil {
		return ConnectionError(xerrors.Errorf("failed to connect to %s: %w", s.Host, err))
	}
	return nil
}

func (s *Session) Opened() bool {
	return s.state != sessionNew
}

func (s *Session) Closed() bool {
	return s.state == sessionClosed
}

// Client returns the device client of an open session.
func (s *Session) Client() (device.Client, error) {
	if s.state != sessionOpen {
		return nil, ConnectionError(xerrors.Errorf("session to %s is not open", s.Host))
	}
	return s.client, nil
}

// Close is a no-op for sessions that were never opened or are already
// closed.
func (s *Session) Close() error {
	if s.state != sessionOpen {
		return nil
	}
	s.state = sessionClosed
	if err := s.client.Close(); err != nil {
		return ConnectionError(xerrors.Errorf("failed to close connection to %s: %w", s.Host, err))
	}
	return nil
}
