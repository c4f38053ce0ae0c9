// Package registry is the service locator binding adapter, LLM, and store
// names to live instances. It is populated once at startup and read-mostly
// afterwards; the RWMutex covers late registration in tests.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/signalhound/signalhound/internal/llm"
	"github.com/signalhound/signalhound/internal/scrape"
	"github.com/signalhound/signalhound/internal/store"
)

// Registry maps component names to instances.
type Registry struct {
	mu       sync.RWMutex
	scrapers map[string]scrape.Scraper
	llms     map[string]llm.Client
	stores   map[string]store.Store
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		scrapers: make(map[string]scrape.Scraper),
		llms:     make(map[string]llm.Client),
		stores:   make(map[string]store.Store),
	}
}

// RegisterScraper adds or replaces an adapter under its own name.
func (r *Registry) RegisterScraper(s scrape.Scraper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrapers[s.Name()] = s
}

// RegisterLLM adds or replaces a completion client under its own name.
func (r *Registry) RegisterLLM(c llm.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llms[c.Name()] = c
}

// RegisterStore adds or replaces a store under the given name.
func (r *Registry) RegisterStore(name string, s store.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[name] = s
}

// GetScraper resolves an adapter by name.
func (r *Registry) GetScraper(name string) (scrape.Scraper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scrapers[name]
	if !ok {
		return nil, fmt.Errorf("scraper %q not found (available: %s)",
			name, strings.Join(sortedKeys(r.scrapers), ", "))
	}
	return s, nil
}

// GetLLM resolves a completion client by name.
func (r *Registry) GetLLM(name string) (llm.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.llms[name]
	if !ok {
		return nil, fmt.Errorf("llm %q not found (available: %s)",
			name, strings.Join(sortedKeys(r.llms), ", "))
	}
	return c, nil
}

// GetStore resolves a store by name.
func (r *Registry) GetStore(name string) (store.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[name]
	if !ok {
		return nil, fmt.Errorf("store %q not found (available: %s)",
			name, strings.Join(sortedKeys(r.stores), ", "))
	}
	return s, nil
}

// ListScraperNames returns registered adapter names, sorted.
func (r *Registry) ListScraperNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.scrapers)
}

// GetAllScrapers returns every registered adapter, ordered by name.
func (r *Registry) GetAllScrapers() []scrape.Scraper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]scrape.Scraper, 0, len(r.scrapers))
	for _, name := range sortedKeys(r.scrapers) {
		out = append(out, r.scrapers[name])
	}
	return out
}

// GetScrapersWithCapability returns adapters declaring the capability,
// ordered by name.
func (r *Registry) GetScrapersWithCapability(cap scrape.Capability) []scrape.Scraper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]scrape.Scraper, 0, len(r.scrapers))
	for _, name := range sortedKeys(r.scrapers) {
		s := r.scrapers[name]
		if scrape.HasCapability(s, cap) {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
