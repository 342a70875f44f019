// Package portrait picks the portrait URL to show for a driver.
//
// Each identity gets a fixed cascade of candidate URLs, built once. Callers
// ask for the active candidate, try it, and report failures back; a failed
// URL is remembered for the lifetime of the process (freshness tokens
// stripped) and never handed out again. The cascade always ends in an inline
// placeholder image, which cannot fail.
//
// One Resolver is shared by every consumer so that they all observe the same
// sequence.
package portrait

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/pitwall/internal/domain/memo"
)

//go:embed placeholder.svg
var placeholderSVG []byte

// DefaultPlaceholder is the built-in silhouette as a data URI.
var DefaultPlaceholder = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(placeholderSVG)

const maxNumberedVariant = 3

// State is a snapshot of one identity's cascade.
type State struct {
	ID         string   `json:"id"`
	Candidates []string `json:"candidates"`
	Exhausted  []string `json:"exhausted"`
	// Active is the candidate to try next, without freshness token. Empty
	// once the identity resolved to the placeholder.
	Active      string `json:"active,omitempty"`
	Placeholder bool   `json:"placeholder"`
	// Attempts counts distinct candidates handed out.
	Attempts int `json:"attempts"`
}

// Stats are resolver-wide counters.
type Stats struct {
	Identities   int   `json:"identities"`
	Placeholders int   `json:"placeholders"`
	Memoized     int64 `json:"memoized"`
	Issued       int   `json:"issued"`
	Failures     int   `json:"failures"`
}

type state struct {
	candidates []string
	active     int
	attempts   int
	// placeholder is terminal until Forget or Clear.
	placeholder bool
}

// Resolver owns the cascade state of every identity. It is safe for
// concurrent use.
type Resolver struct {
	mu sync.Mutex

	staticPrefix string
	remoteBase   string
	currentGrid  map[string]struct{}
	placeholder  string
	cacheBusting bool
	now          func() time.Time

	failed   memo.Set
	states   map[string]*state
	issued   int
	failures int
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		placeholder:  DefaultPlaceholder,
		cacheBusting: true,
		now:          time.Now,
		currentGrid:  map[string]struct{}{},
		states:       make(map[string]*state),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.failed == nil {
		r.failed = memo.New()
	}
	return r
}

// Placeholder returns the terminal placeholder URI.
func (r *Resolver) Placeholder() string { return r.placeholder }

// IsPlaceholder reports whether u is the terminal placeholder.
func (r *Resolver) IsPlaceholder(u string) bool { return u == r.placeholder }

// NextCandidate returns the URL to attempt for id, creating the cascade on
// first use. Blank ids get the placeholder.
func (r *Resolver) NextCandidate(id string) string {
	k := key(id)
	if k == "" {
		return r.placeholder
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stateLocked(k)
	if st.placeholder {
		return r.placeholder
	}
	r.issued++
	return r.decorate(st.candidates[st.active])
}

// ReportFailure records that failedURL could not be loaded for id and returns
// the next URL to attempt, or the placeholder once every candidate failed.
//
// A failure reported for a URL that is no longer active is still remembered,
// but the active candidate stays in place.
func (r *Resolver) ReportFailure(id, failedURL string) string {
	k := key(id)
	if k == "" {
		return r.placeholder
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stateLocked(k)
	failed := StripFreshness(failedURL)
	if failed != "" && failed != r.placeholder {
		r.failures++
		r.failed.SeenAndRecord(failed)
	}
	if st.placeholder {
		return r.placeholder
	}
	r.advanceLocked(st)
	if st.placeholder {
		return r.placeholder
	}
	r.issued++
	return r.decorate(st.candidates[st.active])
}

// Current returns the active URL for id without a freshness token, and
// whether id has a cascade yet.
func (r *Resolver) Current(id string) (string, bool) {
	k := key(id)
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[k]
	if !ok {
		return "", false
	}
	if st.placeholder {
		return r.placeholder, true
	}
	return st.candidates[st.active], true
}

// State returns a snapshot of id's cascade.
func (r *Resolver) State(id string) (State, bool) {
	k := key(id)
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[k]
	if !ok {
		return State{}, false
	}
	out := State{
		ID:          k,
		Candidates:  append([]string(nil), st.candidates...),
		Exhausted:   []string{},
		Placeholder: st.placeholder,
		Attempts:    st.attempts,
	}
	for _, c := range st.candidates {
		if r.failedLocked(c) {
			out.Exhausted = append(out.Exhausted, c)
		}
	}
	if !st.placeholder {
		out.Active = st.candidates[st.active]
	}
	return out, true
}

// Forget drops id's cascade and its remembered failures.
func (r *Resolver) Forget(id string) {
	k := key(id)
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[k]
	if !ok {
		return
	}
	for _, c := range st.candidates {
		r.failed.Unrecord(StripFreshness(c))
	}
	delete(r.states, k)
}

// Clear drops every cascade and every remembered failure.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states = make(map[string]*state)
	r.failed.Reset()
}

// Stats returns resolver-wide counters.
func (r *Resolver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		Identities: len(r.states),
		Memoized:   r.failed.Size(),
		Issued:     r.issued,
		Failures:   r.failures,
	}
	for _, st := range r.states {
		if st.placeholder {
			s.Placeholders++
		}
	}
	return s
}

// Candidates returns the cascade for id without creating state.
func (r *Resolver) Candidates(id string) []string {
	return r.candidates(key(id))
}

func (r *Resolver) stateLocked(k string) *state {
	if st, ok := r.states[k]; ok {
		return st
	}
	st := &state{candidates: r.candidates(k), active: -1}
	r.states[k] = st
	r.advanceLocked(st)
	return st
}

// advanceLocked moves st to its first candidate not yet known to fail.
func (r *Resolver) advanceLocked(st *state) {
	for i, c := range st.candidates {
		if r.failedLocked(c) {
			continue
		}
		if i != st.active {
			st.active = i
			st.attempts++
		}
		return
	}
	st.placeholder = true
	st.active = -1
}

// failedLocked reports whether candidate c is remembered as failed. Candidates
// go through the same key function as reported failures.
func (r *Resolver) failedLocked(c string) bool {
	return r.failed.Seen(StripFreshness(c))
}

func (r *Resolver) candidates(k string) []string {
	if k == "" {
		return nil
	}
	stem := strings.ToLower(k)
	var out []string
	seen := make(map[string]struct{})
	add := func(u string) {
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	if r.staticPrefix != "" {
		add(fmt.Sprintf("%s/%s.png", r.staticPrefix, stem))
	}
	if r.remoteBase == "" {
		return out
	}
	remote := func(suffix string) string { return fmt.Sprintf("%s/%s%s", r.remoteBase, stem, suffix) }
	if _, current := r.currentGrid[k]; current {
		add(remote(".png"))
		add(remote(".jpg"))
		add(remote("1.jpg"))
	} else {
		add(remote("1.jpg"))
		add(remote(".jpg"))
	}
	for n := 1; n <= maxNumberedVariant; n++ {
		add(remote(fmt.Sprintf("%d.png", n)))
		add(remote(fmt.Sprintf("%d.jpg", n)))
	}
	return out
}

func key(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
