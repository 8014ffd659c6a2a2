// Package registry implements the Index and ScopeRegistry of spec §3 and
// §4.3: crate-scoped storage of IndexedItems plus named scope resolution,
// guarded by the single-writer/many-reader discipline spec §5 requires.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alpaylan/ruggle/internal/ingest"
	"github.com/alpaylan/ruggle/internal/model"
)

// UnknownScopeError is spec §7's UnknownScope, surfaced to the caller
// unchanged.
type UnknownScopeError struct {
	Scope string
}

func (e *UnknownScopeError) Error() string { return fmt.Sprintf("unknown scope %q", e.Scope) }

// wellKnownLibstd is the required well-known set.libstd: std, core and
// alloc, in that order, present only when they happen to be ingested —
// absent members are silently dropped at resolution time, exactly like any
// other define_set'd set.
var wellKnownLibstd = []string{"std", "core", "alloc"}

// Index holds every ingested CrateIndex plus the ScopeRegistry's named
// sets. It is the single value spec §9 says should be owned by the service
// layer and handed to each search call, never reached through ambient
// module state.
type Index struct {
	mu sync.RWMutex

	// crates is keyed by "name:version"; latest maps a bare name to the
	// version most recently ingested for it, implementing "crate:<name>"
	// versionless resolution.
	crates map[string]*model.CrateIndex
	latest map[string]string

	// sets maps a set name to an ordered list of bare crate names or
	// "name:version" keys, exactly as passed to DefineSet.
	sets map[string][]string
}

// New returns an empty Index with the well-known set:libstd pre-registered.
func New() *Index {
	return &Index{
		crates: make(map[string]*model.CrateIndex),
		latest: make(map[string]string),
		sets:   map[string][]string{"libstd": append([]string(nil), wellKnownLibstd...)},
	}
}

func crateKey(name, version string) string { return name + ":" + version }

// Ingest parses a documentation JSON blob for (name, version) and replaces
// any previous entry for that exact (name, version) pair. It returns the
// number of items ingested. A parse failure is an IngestError: this crate
// is skipped, and any previously ingested version of it is left untouched
// so a transient bad re-ingest never poisons the index (spec §7).
func (idx *Index) Ingest(name, version string, docJSON []byte) (int, error) {
	items, err := ingest.ParseCrate(docJSON, name, version)
	if err != nil {
		return 0, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.crates[crateKey(name, version)] = &model.CrateIndex{Name: name, Version: version, Items: items}
	idx.latest[name] = version
	return len(items), nil
}

// ListCrates returns every ingested (name, version) pair.
func (idx *Index) ListCrates() []model.CrateIndex {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]model.CrateIndex, 0, len(idx.crates))
	for _, c := range idx.crates {
		out = append(out, model.CrateIndex{Name: c.Name, Version: c.Version, Items: c.Items})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// DefineSet registers or replaces a named set. Members are plain crate
// names (resolved to their latest ingested version at lookup time) or
// "name:version" pairs; absent members are silently dropped when the set
// is later resolved, never when it is defined.
func (idx *Index) DefineSet(setName string, members []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.sets[setName] = append([]string(nil), members...)
}

// ResolveScope resolves a scope string — "crate:<name>", "crate:<name>:<version>"
// or "set:<name>" — to an ordered list of crate keys ("name:version"),
// per spec §4.3.
func (idx *Index) ResolveScope(scope string) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	switch {
	case strings.HasPrefix(scope, "crate:"):
		rest := strings.TrimPrefix(scope, "crate:")
		if name, version, ok := strings.Cut(rest, ":"); ok {
			key := crateKey(name, version)
			if _, ok := idx.crates[key]; !ok {
				return nil, &UnknownScopeError{Scope: scope}
			}
			return []string{key}, nil
		}
		version, ok := idx.latest[rest]
		if !ok {
			return nil, &UnknownScopeError{Scope: scope}
		}
		return []string{crateKey(rest, version)}, nil

	case strings.HasPrefix(scope, "set:"):
		setName := strings.TrimPrefix(scope, "set:")
		members, ok := idx.sets[setName]
		if !ok {
			return nil, &UnknownScopeError{Scope: scope}
		}
		var keys []string
		for _, m := range members {
			if name, version, ok := strings.Cut(m, ":"); ok {
				if _, ok := idx.crates[crateKey(name, version)]; ok {
					keys = append(keys, crateKey(name, version))
				}
				continue
			}
			if version, ok := idx.latest[m]; ok {
				keys = append(keys, crateKey(m, version))
			}
		}
		return keys, nil

	default:
		return nil, &UnknownScopeError{Scope: scope}
	}
}

// Directory lists every registered "crate:…" and "set:…" key in
// lexicographic order, per spec §6.3.
func (idx *Index) Directory() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := make([]string, 0, len(idx.crates)+len(idx.latest)+len(idx.sets))
	for k := range idx.crates {
		keys = append(keys, "crate:"+k)
	}
	for name := range idx.latest {
		keys = append(keys, "crate:"+name)
	}
	for name := range idx.sets {
		keys = append(keys, "set:"+name)
	}
	sort.Strings(keys)
	return keys
}

// Items returns the ordered item slice for a resolved crate key, or nil if
// it does not exist. Iteration order is ingest order, as CrateIndex stores
// it; callers must not mutate the returned slice.
func (idx *Index) Items(key string) []model.IndexedItem {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	c, ok := idx.crates[key]
	if !ok {
		return nil
	}
	return c.Items
}
