package conversation

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/agentrt/internal/apperr"
)

// Actor identifies who produced a ChatEntry.
type Actor string

const (
	ActorUser      Actor = "user"
	ActorAssistant Actor = "assistant"
	ActorSystem    Actor = "system"
	ActorTool      Actor = "tool"
)

// ChatEntry is one turn's worth of canonical, provider-neutral chat content
// appended to a thread. CombinedChat holds `{"messages": [...]}` produced by
// the agent loop, independent of which vendor originated it.
type ChatEntry struct {
	ID           string                 `json:"id"`
	SessionID    *string                `json:"sessionId,omitempty"`
	ThreadID     string                 `json:"threadId"`
	TurnIndex    int                    `json:"turnIndex"`
	Actor        Actor                  `json:"actor"`
	CombinedChat map[string]interface{} `json:"combinedChat"`
	InsertedAt   time.Time              `json:"insertedAt"`
}

// Store is the ConversationStore (C11): it appends canonical chat entries per
// thread, attaches orphaned threads to sessions, and answers the latest
// thread snapshot for a session. The backing table is in-memory, mirroring
// the `chat_entries` relation; a durable implementation swaps the maps below
// for SQL without changing the Store's contract.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*ChatEntry // id -> entry
	byThread map[string][]string   // thread_id -> entry ids, insertion order
	now      func() time.Time
	idGen    func() string
}

// Option customizes Store construction.
type Option func(*Store)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the entry ID generator, for deterministic tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.idGen = gen }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		entries:  make(map[string]*ChatEntry),
		byThread: make(map[string][]string),
		now:      time.Now,
		idGen:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AppendEntry inserts a new ChatEntry for threadID at max(existing turn_index)+1
// within that thread, per the invariant in §3.3. sessionID may be empty, in
// which case the thread starts (or stays) orphaned.
func (s *Store) AppendEntry(sessionID, threadID string, actor Actor, combinedChat map[string]interface{}) (*ChatEntry, error) {
	if threadID == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidOptions, "thread id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextTurn := 0
	if ids := s.byThread[threadID]; len(ids) > 0 {
		last := s.entries[ids[len(ids)-1]]
		nextTurn = last.TurnIndex + 1
	}

	entry := &ChatEntry{
		ID:           s.idGen(),
		ThreadID:     threadID,
		TurnIndex:    nextTurn,
		Actor:        actor,
		CombinedChat: combinedChat,
		InsertedAt:   s.now(),
	}
	if sessionID != "" {
		sid := sessionID
		entry.SessionID = &sid
	}

	s.entries[entry.ID] = entry
	s.byThread[threadID] = append(s.byThread[threadID], entry.ID)
	return entry, nil
}

// LatestThread returns every entry belonging to the most recently touched
// thread attached to sessionID, ordered by turn_index. "Most recently
// touched" is the thread whose last appended entry has the latest
// InsertedAt among threads attached to sessionID.
func (s *Store) LatestThread(sessionID string) ([]*ChatEntry, error) {
	if sessionID == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidOptions, "session id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var bestThread string
	var bestTime time.Time
	for threadID, ids := range s.byThread {
		if len(ids) == 0 {
			continue
		}
		last := s.entries[ids[len(ids)-1]]
		if last.SessionID == nil || *last.SessionID != sessionID {
			continue
		}
		if bestThread == "" || last.InsertedAt.After(bestTime) {
			bestThread = threadID
			bestTime = last.InsertedAt
		}
	}
	if bestThread == "" {
		return nil, nil
	}
	return s.snapshotLocked(bestThread), nil
}

// ThreadEntries returns every entry for threadID ordered by turn_index,
// regardless of session attachment.
func (s *Store) ThreadEntries(threadID string) []*ChatEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(threadID)
}

func (s *Store) snapshotLocked(threadID string) []*ChatEntry {
	ids := s.byThread[threadID]
	out := make([]*ChatEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entries[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TurnIndex < out[j].TurnIndex })
	return out
}

// AttachThreadToSession sets session_id on every entry of threadID that is
// currently orphaned or belongs to a different session, returning the count
// of entries updated. An orphaned thread (session_id=NULL) can be attached
// later, per §4.11.
func (s *Store) AttachThreadToSession(threadID, sessionID string) (int, error) {
	if threadID == "" || sessionID == "" {
		return 0, apperr.Wrap(apperr.ErrInvalidOptions, "thread id and session id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.byThread[threadID]
	if !ok {
		return 0, apperr.Wrap(apperr.ErrSessionNotFound, "thread %q not found", threadID)
	}

	count := 0
	for _, id := range ids {
		entry := s.entries[id]
		if entry.SessionID != nil && *entry.SessionID == sessionID {
			continue
		}
		sid := sessionID
		entry.SessionID = &sid
		count++
	}
	return count, nil
}

// DeleteSessionOnly nulls session_id on every entry attached to sessionID,
// preserving the entries themselves. Deleting a Session must never delete
// its chat history (§3.2).
func (s *Store) DeleteSessionOnly(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, entry := range s.entries {
		if entry.SessionID != nil && *entry.SessionID == sessionID {
			entry.SessionID = nil
			count++
		}
	}
	return count
}
