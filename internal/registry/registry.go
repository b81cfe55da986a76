package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"BiasEngine/internal/domain/models"
)

// Registry holds the named fundamental factors and their weights. Reads are
// lock-free for scorers beyond an RWMutex read lock; mutation is
// single-writer and bumps a monotonic revision so a scoring run can detect
// a weight change that happened mid-run.
type Registry struct {
	mu       sync.RWMutex
	factors  map[string]models.Factor
	byIndic  map[string]string // indicator -> owning factor name
	revision uint64
}

// DefaultFactors is the baseline fundamental factor set.
var DefaultFactors = []models.Factor{
	{Name: "inflation", Indicators: []string{"cpi", "core_cpi", "ppi"}, Weight: 1.5},
	{Name: "employment", Indicators: []string{"nfp", "unemployment_rate", "jobless_claims"}, Weight: 1.4},
	{Name: "growth", Indicators: []string{"gdp", "industrial_production"}, Weight: 1.3},
	{Name: "activity", Indicators: []string{"pmi_manufacturing", "pmi_services"}, Weight: 1.1},
	{Name: "consumption", Indicators: []string{"retail_sales", "consumer_confidence"}, Weight: 1.0},
	{Name: "trade", Indicators: []string{"trade_balance", "current_account"}, Weight: 0.8},
	{Name: "housing", Indicators: []string{"building_permits", "housing_starts"}, Weight: 0.6},
}

// New builds a registry preloaded with the default factor set.
func New() *Registry {
	r := &Registry{
		factors: make(map[string]models.Factor),
		byIndic: make(map[string]string),
	}
	for _, f := range DefaultFactors {
		// defaults are known-good; install without revision churn
		r.install(f)
	}
	return r
}

func (r *Registry) install(f models.Factor) {
	r.factors[f.Name] = cloneFactor(f)
	for _, ind := range f.Indicators {
		r.byIndic[strings.ToLower(ind)] = f.Name
	}
}

func validateFactor(f models.Factor) error {
	if f.Name == "" {
		return fmt.Errorf("factor: name is required")
	}
	if len(f.Indicators) == 0 {
		return fmt.Errorf("factor %q: at least one indicator is required", f.Name)
	}
	if f.Weight <= 0 || f.Weight > 10 {
		return fmt.Errorf("factor %q: weight %g outside (0,10]", f.Name, f.Weight)
	}
	return nil
}

// Upsert adds or replaces a factor. All-or-nothing: on error the registry
// is unchanged and the revision does not move.
func (r *Registry) Upsert(f models.Factor) error {
	if err := validateFactor(f); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.factors[f.Name]; ok {
		for _, ind := range old.Indicators {
			delete(r.byIndic, strings.ToLower(ind))
		}
	}
	r.install(f)
	r.revision++
	return nil
}

// SetWeight changes one factor's weight.
func (r *Registry) SetWeight(name string, weight float64) error {
	if weight <= 0 || weight > 10 {
		return fmt.Errorf("factor %q: weight %g outside (0,10]", name, weight)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.factors[name]
	if !ok {
		return fmt.Errorf("factor %q not found", name)
	}
	f.Weight = weight
	r.factors[name] = f
	r.revision++
	return nil
}

// Remove deletes a factor by name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.factors[name]
	if !ok {
		return fmt.Errorf("factor %q not found", name)
	}
	for _, ind := range f.Indicators {
		delete(r.byIndic, strings.ToLower(ind))
	}
	delete(r.factors, name)
	r.revision++
	return nil
}

// Get returns a copy of one factor.
func (r *Registry) Get(name string) (models.Factor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factors[name]
	if !ok {
		return models.Factor{}, false
	}
	return cloneFactor(f), true
}

// All returns a copy of the full factor map.
func (r *Registry) All() map[string]models.Factor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]models.Factor, len(r.factors))
	for k, v := range r.factors {
		out[k] = cloneFactor(v)
	}
	return out
}

// Names returns factor names sorted for stable listings.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factors))
	for k := range r.factors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves an indicator to its owning factor's name and weight.
// Unmapped indicators score with weight 1 under their own name.
func (r *Registry) Lookup(indicator string) (name string, weight float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fname, ok := r.byIndic[strings.ToLower(indicator)]
	if !ok {
		return indicator, 1
	}
	return fname, r.factors[fname].Weight
}

// MaxWeight is the largest weight across all factors (minimum 1), used as
// the saturation denominator for the economic dimension.
func (r *Registry) MaxWeight() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := 1.0
	for _, f := range r.factors {
		if f.Weight > max {
			max = f.Weight
		}
	}
	return max
}

// Revision is the monotonic mutation counter.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

func cloneFactor(f models.Factor) models.Factor {
	f.Indicators = append([]string(nil), f.Indicators...)
	return f
}
