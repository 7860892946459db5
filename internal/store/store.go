// Package store holds the in-memory tables behind §6.1's persisted state:
// sessions, mcp_servers and session_mcp_servers. ChatEntry and
// SystemPromptItem already have dedicated stores (genai/conversation,
// genai/prompt); SavedAuthentication has its own encrypted store
// (genai/credential). This package covers what is left: Session and
// MCPServer plus their many-to-many join.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viant/agentrt/internal/apperr"
)

// Session mirrors the `sessions` table of §6.1 and §3.2.
type Session struct {
	ID                        string
	Name                      string
	AuthProvider              string
	AuthType                  string
	AuthName                  string
	ModelID                   string
	WorkingDir                string
	Tools                     []string
	Memory                    map[string]interface{}
	SystemPromptIDsByProvider map[string]interface{}
	InsertedAt                time.Time
	UpdatedAt                 time.Time
}

// MCPServer mirrors the `mcp_servers` table of §3.5/§6.1.
type MCPServer struct {
	ID          string
	Name        string
	DisplayName string
	Transport   string // stdio | http | sse
	URL         string
	Command     string
	Args        []string
	Headers     map[string]string
	Env         map[string]string
	Metadata    map[string]interface{}
	Tags        []string
	AuthToken   string
	IsEnabled   bool
	Trust       string // trusted | untrusted
	Priority    int
}

// SessionServer mirrors `session_mcp_servers`: the many-to-many join between
// a Session and an MCPServer.
type SessionServer struct {
	ID          string
	SessionID   string
	MCPServerID string
	Alias       string
	Metadata    map[string]interface{}
	AttachedAt  time.Time
}

// Store is a single mutex-protected in-memory repository for the three
// tables above. Per the Design Notes ("global state: none required"), tests
// and cmd/agently each construct their own Store.
type Store struct {
	mu sync.RWMutex

	sessions map[string]*Session
	servers  map[string]*MCPServer
	byName   map[string]string // server name -> id, unique per §3.5
	joins    map[string]*SessionServer
}

func New() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		servers:  make(map[string]*MCPServer),
		byName:   make(map[string]string),
		joins:    make(map[string]*SessionServer),
	}
}

// CreateSession inserts a new Session, assigning an id if absent.
func (s *Store) CreateSession(sess *Session) (*Session, error) {
	if sess.Name == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidOptions, "session name is required")
	}
	if len(sess.Name) > 50 {
		return nil, apperr.Wrap(apperr.ErrInvalidSessionName, "session name %q exceeds 50 characters", sess.Name)
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now()
	sess.InsertedAt, sess.UpdatedAt = now, now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) GetSession(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// DeleteSession removes a session row only; callers MUST separately null
// chat_entries.session_id (genai/conversation.Store.DeleteSessionOnly) — a
// Session's chat history is never cascaded away, per §3.2/§6.1.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	for jid, j := range s.joins {
		if j.SessionID == id {
			delete(s.joins, jid)
		}
	}
}

// UpsertMCPServer inserts or replaces an MCPServer by its unique Name.
func (s *Store) UpsertMCPServer(srv *MCPServer) (*MCPServer, error) {
	if srv.Name == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidOptions, "mcp server name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existingID, ok := s.byName[srv.Name]; ok && srv.ID == "" {
		srv.ID = existingID
	}
	if srv.ID == "" {
		srv.ID = uuid.NewString()
	}
	s.servers[srv.ID] = srv
	s.byName[srv.Name] = srv.ID
	return srv, nil
}

func (s *Store) GetMCPServer(id string) (*MCPServer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	srv, ok := s.servers[id]
	return srv, ok
}

func (s *Store) GetMCPServerByName(name string) (*MCPServer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	srv, ok := s.servers[id]
	return srv, ok
}

// ListMCPServers returns every configured MCPServer, enabled or not.
func (s *Store) ListMCPServers() []*MCPServer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*MCPServer, 0, len(s.servers))
	for _, srv := range s.servers {
		out = append(out, srv)
	}
	return out
}

// DeleteMCPServer removes a server and any session attachments that
// reference it.
func (s *Store) DeleteMCPServer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if srv, ok := s.servers[id]; ok {
		delete(s.byName, srv.Name)
	}
	delete(s.servers, id)
	for jid, j := range s.joins {
		if j.MCPServerID == id {
			delete(s.joins, jid)
		}
	}
}

// ReplaceSessionServers implements the caller API's replace_session_servers
// (§6.5): it drops every existing join for sessionID and re-attaches exactly
// the given server ids (with optional aliases).
func (s *Store) ReplaceSessionServers(sessionID string, serverIDs []string, aliases map[string]string) []*SessionServer {
	s.mu.Lock()
	defer s.mu.Unlock()

	for jid, j := range s.joins {
		if j.SessionID == sessionID {
			delete(s.joins, jid)
		}
	}
	now := time.Now()
	out := make([]*SessionServer, 0, len(serverIDs))
	for _, srvID := range serverIDs {
		j := &SessionServer{
			ID:          uuid.NewString(),
			SessionID:   sessionID,
			MCPServerID: srvID,
			Alias:       aliases[srvID],
			AttachedAt:  now,
		}
		s.joins[j.ID] = j
		out = append(out, j)
	}
	return out
}

// SessionServers returns every MCPServer attached to sessionID.
func (s *Store) SessionServers(sessionID string) []*MCPServer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*MCPServer
	for _, j := range s.joins {
		if j.SessionID != sessionID {
			continue
		}
		if srv, ok := s.servers[j.MCPServerID]; ok {
			out = append(out, srv)
		}
	}
	return out
}

// EnsureServersExist implements the caller API's ensure_servers_exist
// (§6.5): it upserts every given server definition by name, returning the
// resulting ids in input order.
func (s *Store) EnsureServersExist(defs []*MCPServer) ([]string, error) {
	ids := make([]string, 0, len(defs))
	for _, def := range defs {
		srv, err := s.UpsertMCPServer(def)
		if err != nil {
			return nil, err
		}
		ids = append(ids, srv.ID)
	}
	return ids, nil
}
