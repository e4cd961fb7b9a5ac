package client

import "sync"

// RoomSession tracks the one room a device is currently in.
type RoomSession struct {
	mu   sync.RWMutex
	code string
}

// Join normalizes code and makes it current, returning the normalized form.
func (s *RoomSession) Join(code string) (string, error) {
	n, err := parseRoom(code)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.code = n
	s.mu.Unlock()
	return n, nil
}

// Leave clears the current room. It is safe to call when no room is joined.
func (s *RoomSession) Leave() {
	s.mu.Lock()
	s.code = ""
	s.mu.Unlock()
}

func (s *RoomSession) Code() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code
}

func (s *RoomSession) Active() bool { return s.Code() != "" }
