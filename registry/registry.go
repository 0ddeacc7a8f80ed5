// Package registry maps a run plan (a YAML file naming the tests to run)
// onto test functions registered in a catalog.
package registry

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/testforge/subreport/harness"
)

// Plan is the on-disk run description.
type Plan struct {
	Name  string   `yaml:"name"`
	Tests []string `yaml:"tests"`
}

// Catalog holds registered test functions by node ID. The zero value is
// usable; DefaultCatalog is what package-level Register feeds.
type Catalog struct {
	mu    sync.Mutex
	tests map[string]func(t *harness.T)
}

var DefaultCatalog = &Catalog{}

// Register adds a test function to the default catalog. Registering the same
// node ID twice replaces the earlier function.
func Register(nodeID string, fn func(t *harness.T)) {
	DefaultCatalog.Register(nodeID, fn)
}

func (c *Catalog) Register(nodeID string, fn func(t *harness.T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tests == nil {
		c.tests = make(map[string]func(t *harness.T))
	}
	c.tests[nodeID] = fn
}

func (c *Catalog) lookup(nodeID string) (func(t *harness.T), bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn, ok := c.tests[nodeID]
	return fn, ok
}

func (c *Catalog) nodeIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.tests))
	for id := range c.tests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Config configures a registry.
type Config struct {
	Log      log.Logger
	PlanFile string // empty means run the whole catalog
	Catalog  *Catalog
}

// Registry resolves a plan against a catalog.
type Registry struct {
	log     log.Logger
	plan    *Plan
	catalog *Catalog
}

func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog
	}

	r := &Registry{log: cfg.Log, catalog: cfg.Catalog}
	if cfg.PlanFile != "" {
		plan, err := loadPlan(cfg.PlanFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load run plan: %w", err)
		}
		r.plan = plan
		cfg.Log.Debug("Loaded run plan", "name", plan.Name, "tests", len(plan.Tests))
	}
	return r, nil
}

func loadPlan(file string) (*Plan, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("invalid plan file %s: %w", file, err)
	}
	return &plan, nil
}

// Plan returns the loaded plan, or nil when running the whole catalog.
func (r *Registry) Plan() *Plan { return r.plan }

// Items resolves the plan into runnable harness items, in plan order. With
// no plan, the whole catalog is returned in node-ID order.
func (r *Registry) Items() ([]*harness.Item, error) {
	ids := r.catalog.nodeIDs()
	if r.plan != nil {
		ids = r.plan.Tests
	}

	items := make([]*harness.Item, 0, len(ids))
	for _, id := range ids {
		fn, ok := r.catalog.lookup(id)
		if !ok {
			return nil, fmt.Errorf("plan references unknown test %q", id)
		}
		items = append(items, harness.NewItem(id, fn))
	}
	return items, nil
}
