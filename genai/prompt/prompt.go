// Package prompt implements PromptStack (C5): resolution of the ordered,
// versioned system-prompt set for a session+provider pair, and rendering of
// that set into a provider-specific payload.
package prompt

import (
	"sort"
	"sync"
	"time"

	"github.com/viant/agentrt/internal/apperr"
)

// RenderFormat is the wire shape a SystemPromptItem renders to.
type RenderFormat string

const (
	FormatText            RenderFormat = "text"
	FormatAnthropicBlocks  RenderFormat = "anthropic_blocks"
	FormatGeminiParts      RenderFormat = "gemini_parts"
)

// Source identifies where a resolved Stack came from, per §4.5.
type Source string

const (
	SourceSession Source = "session"
	SourceDefault Source = "default"
)

const sharedProvider = "shared"

// Item is a SystemPromptItem (§3.4): an immutable, versioned revision within
// a prompt family. A new revision is a new row with the same FamilyID.
type Item struct {
	ID           string
	FamilyID     string
	Provider     string // concrete provider, or "shared"
	RenderFormat RenderFormat
	Version      int
	IsDefault    bool
	Text         string
	Metadata     map[string]interface{}
	Position     int // stable ordering among defaults
	Editor       string
	ChangeNote   string
}

// Ref pins a specific item within a session's system_prompt_ids_by_provider
// list, optionally disabling it or overriding its rendered content.
type Ref struct {
	ID        string
	Enabled   *bool // nil == true
	Overrides map[string]interface{}
}

func (r Ref) enabled() bool { return r.Enabled == nil || *r.Enabled }

// SessionPins is the subset of Session state PromptStack needs: the
// per-provider pinned prompt lists (§3.2 system_prompt_ids_by_provider).
type SessionPins struct {
	ID                        string
	SystemPromptIDsByProvider map[string][]Ref
}

// ResolvedItem pairs a stored Item with any session-supplied override applied
// to it during resolution.
type ResolvedItem struct {
	Item      *Item
	Overrides map[string]interface{}
}

// Stack is the ordered result of resolve_for_session.
type Stack struct {
	Provider string
	Source   Source
	Items    []ResolvedItem
}

// Store holds SystemPromptItem revisions in memory, keyed by id, with a
// family index used to enforce the default/version invariants.
type Store struct {
	mu       sync.RWMutex
	items    map[string]*Item
	byFamily map[string][]string // family id -> item ids, insertion order
}

func NewStore() *Store {
	return &Store{items: make(map[string]*Item), byFamily: make(map[string][]string)}
}

// Put inserts a new revision. It enforces: version strictly increases within
// a family, and at most one is_default=true per family (setting a new
// default demotes the family's previous default).
func (s *Store) Put(item *Item) error {
	if item.ID == "" || item.FamilyID == "" {
		return apperr.Wrap(apperr.ErrInvalidOptions, "item id and family id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byFamily[item.FamilyID] {
		if s.items[id].Version >= item.Version {
			return apperr.Wrap(apperr.ErrUniquenessViolation, "version %d does not strictly increase family %q", item.Version, item.FamilyID)
		}
	}
	if item.IsDefault {
		for _, id := range s.byFamily[item.FamilyID] {
			s.items[id].IsDefault = false
		}
	}

	s.items[item.ID] = item
	s.byFamily[item.FamilyID] = append(s.byFamily[item.FamilyID], item.ID)
	return nil
}

func (s *Store) get(id string) (*Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// defaultsFor returns every is_default=true item visible to provider (its own
// provider plus "shared"), ordered by Position.
func (s *Store) defaultsFor(provider string) []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Item
	for _, it := range s.items {
		if !it.IsDefault {
			continue
		}
		if it.Provider != provider && it.Provider != sharedProvider {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Resolution carries the measurements emitted with every
// [:system_prompts, :resolved] event, per §4.13.
type Resolution struct {
	Provider        string
	Source          Source
	PromptCount     int
	OverridesCount  int
	MissingDefaults int
	Duration        time.Duration
}

// ResolutionSink receives the telemetry emitted on every resolution, per
// §4.13's [:system_prompts, :resolved] event.
type ResolutionSink interface {
	PromptsResolved(Resolution)
}

// PromptStack resolves and renders system prompts for a session. It is the
// PromptStack component (C5); Store is its backing repository and Sink its
// telemetry emitter (nil is accepted and treated as a no-op).
type PromptStack struct {
	store *Store
	sink  ResolutionSink
	now   func() time.Time
}

func New(store *Store, sink ResolutionSink) *PromptStack {
	return &PromptStack{store: store, sink: sink, now: time.Now}
}

// ResolveForSession implements resolve_for_session. If the session pins an
// explicit ordered list for provider, those items are resolved in pinned
// order (skipping disabled refs); otherwise the provider's (or shared)
// is_default items are used, ordered by stable position.
func (p *PromptStack) ResolveForSession(session SessionPins, provider string) Stack {
	start := p.now()

	refs, pinned := session.SystemPromptIDsByProvider[provider]
	var stack Stack
	stack.Provider = provider
	overridesCount := 0
	missingDefaults := 0

	if pinned {
		stack.Source = SourceSession
		for _, ref := range refs {
			if !ref.enabled() {
				continue
			}
			item, ok := p.store.get(ref.ID)
			if !ok {
				continue
			}
			if len(ref.Overrides) > 0 {
				overridesCount++
			}
			stack.Items = append(stack.Items, ResolvedItem{Item: item, Overrides: ref.Overrides})
		}
	} else {
		stack.Source = SourceDefault
		for _, item := range p.store.defaultsFor(provider) {
			stack.Items = append(stack.Items, ResolvedItem{Item: item})
		}
		if len(stack.Items) == 0 {
			missingDefaults = 1
		}
	}

	if p.sink != nil {
		p.sink.PromptsResolved(Resolution{
			Provider:        provider,
			Source:          stack.Source,
			PromptCount:     len(stack.Items),
			OverridesCount:  overridesCount,
			MissingDefaults: missingDefaults,
			Duration:        p.now().Sub(start),
		})
	}
	return stack
}
