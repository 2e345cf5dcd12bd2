package domain

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidChannelID is returned when a channel is registered with a non-group chat ID
var ErrInvalidChannelID = errors.New("channel id must be negative")

// Snapshot is the serializable form of the relay settings.
// JSON keys match the persisted settings document.
type Snapshot struct {
	Users    map[int64]int64  `json:"users"`    // user chat ID -> destination channel ID
	Channels map[string]int64 `json:"channels"` // channel name -> channel chat ID
	Messages map[int]int64    `json:"messages"` // relayed message ID -> origin chat ID
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.normalize()
	return s
}

func (s *Snapshot) normalize() {
	if s.Users == nil {
		s.Users = make(map[int64]int64)
	}
	if s.Channels == nil {
		s.Channels = make(map[string]int64)
	}
	if s.Messages == nil {
		s.Messages = make(map[int]int64)
	}
}

// Settings is the owned, process-wide relay state.
// All mutations bump the revision so callers can tell whether a save is due.
type Settings struct {
	mu         sync.RWMutex
	users      map[int64]int64
	channels   map[string]int64
	messages   map[int]int64
	traceLimit int
	revision   uint64
}

// NewSettings builds settings from a loaded snapshot. A traceLimit of 0 keeps
// every trace entry.
func NewSettings(snap *Snapshot, traceLimit int) *Settings {
	if snap == nil {
		snap = NewSnapshot()
	}
	snap.normalize()

	s := &Settings{
		users:      make(map[int64]int64, len(snap.Users)),
		channels:   make(map[string]int64, len(snap.Channels)),
		messages:   make(map[int]int64, len(snap.Messages)),
		traceLimit: traceLimit,
	}
	for k, v := range snap.Users {
		s.users[k] = v
	}
	for k, v := range snap.Channels {
		s.channels[k] = v
	}
	for k, v := range snap.Messages {
		s.messages[k] = v
	}
	s.evictLocked()
	return s
}

// SetUserChannel assigns a destination channel to a user
func (s *Settings) SetUserChannel(userID, channelID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = channelID
	s.revision++
}

// ClearUserChannel removes the explicit destination of a user
func (s *Settings) ClearUserChannel(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; ok {
		delete(s.users, userID)
		s.revision++
	}
}

// UserChannel returns the explicit destination of a user
func (s *Settings) UserChannel(userID int64) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.users[userID]
	return id, ok
}

// AddChannel registers a named channel
func (s *Settings) AddChannel(name string, chatID int64) error {
	if !IsGroupChat(chatID) {
		return ErrInvalidChannelID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[name] = chatID
	s.revision++
	return nil
}

// Channel looks up a channel by name. An exact match wins; otherwise names
// compare case-insensitively, first in sorted order.
func (s *Settings) Channel(name string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.channels[name]; ok {
		return id, true
	}
	for _, candidate := range s.sortedNamesLocked() {
		if strings.EqualFold(candidate, name) {
			return s.channels[candidate], true
		}
	}
	return 0, false
}

// ChannelNames returns registered channel names in sorted order
func (s *Settings) ChannelNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedNamesLocked()
}

func (s *Settings) sortedNamesLocked() []string {
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trace records that messageID (in a channel) originated from originChatID
func (s *Settings) Trace(messageID int, originChatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[messageID] = originChatID
	s.evictLocked()
	s.revision++
}

// Origin returns the private chat a relayed message came from
func (s *Settings) Origin(messageID int) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.messages[messageID]
	return id, ok
}

// evictLocked drops the lowest message IDs until the trace fits the limit
func (s *Settings) evictLocked() {
	if s.traceLimit <= 0 || len(s.messages) <= s.traceLimit {
		return
	}
	ids := make([]int, 0, len(s.messages))
	for id := range s.messages {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids[:len(ids)-s.traceLimit] {
		delete(s.messages, id)
	}
}

// Revision returns the mutation counter
func (s *Settings) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Counts returns the size of each mapping
func (s *Settings) Counts() (users, channels, messages int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.channels), len(s.messages)
}

// Snapshot copies the current state for persistence
func (s *Settings) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Users:    make(map[int64]int64, len(s.users)),
		Channels: make(map[string]int64, len(s.channels)),
		Messages: make(map[int]int64, len(s.messages)),
	}
	for k, v := range s.users {
		snap.Users[k] = v
	}
	for k, v := range s.channels {
		snap.Channels[k] = v
	}
	for k, v := range s.messages {
		snap.Messages[k] = v
	}
	return snap
}
