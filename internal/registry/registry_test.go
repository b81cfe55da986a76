package registry

import (
	"testing"

	"BiasEngine/internal/domain/models"
)

func TestUpsertBumpsRevision(t *testing.T) {
	r := New()
	if r.Revision() != 0 {
		t.Fatalf("fresh registry revision = %d, want 0", r.Revision())
	}
	err := r.Upsert(models.Factor{Name: "rates", Indicators: []string{"policy_rate"}, Weight: 2})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if r.Revision() != 1 {
		t.Fatalf("revision = %d, want 1", r.Revision())
	}
	name, w := r.Lookup("policy_rate")
	if name != "rates" || w != 2 {
		t.Fatalf("lookup = (%s,%g), want (rates,2)", name, w)
	}
}

func TestInvalidWeightLeavesRegistryUnchanged(t *testing.T) {
	r := New()
	before := r.Revision()
	if err := r.Upsert(models.Factor{Name: "bad", Indicators: []string{"x"}, Weight: -1}); err == nil {
		t.Fatalf("expected error for negative weight")
	}
	if err := r.SetWeight("inflation", 0); err == nil {
		t.Fatalf("expected error for zero weight")
	}
	if r.Revision() != before {
		t.Fatalf("revision moved on rejected mutation")
	}
	if _, ok := r.Get("bad"); ok {
		t.Fatalf("rejected factor was installed")
	}
}

func TestRemoveUnmapsIndicators(t *testing.T) {
	r := New()
	if err := r.Remove("housing"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	name, w := r.Lookup("building_permits")
	if name != "building_permits" || w != 1 {
		t.Fatalf("removed indicator still mapped: (%s,%g)", name, w)
	}
	if err := r.Remove("housing"); err == nil {
		t.Fatalf("expected not-found on second remove")
	}
}

func TestUnknownIndicatorDefaultsToUnitWeight(t *testing.T) {
	r := New()
	name, w := r.Lookup("mystery_indicator")
	if name != "mystery_indicator" || w != 1 {
		t.Fatalf("lookup = (%s,%g), want identity with weight 1", name, w)
	}
}
