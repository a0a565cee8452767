package ontology

import (
	"reflect"
	"testing"
)

func currentOntology() *Ontology {
	o := Empty()
	o.Values = []Value{{ID: "T0:v1", Label: "v1", Tier: 0}}
	o.Categories["history"] = Category{Label: "History"}
	o.Map["History threads"] = "history"
	o.ValueMap["history"] = []string{"T0:v1"}
	return o
}

func candidateOntology() *Ontology {
	o := currentOntology()
	o.Categories["auto-new-topic"] = Category{Label: "New topic"}
	o.Map["New topic"] = "auto-new-topic"
	o.ValueMap["history"] = []string{"T0:v1", "T1:v2"}
	o.ValueMap["auto-new-topic"] = []string{"T1:v2"}
	return o
}

func TestSuggestIsAdditiveOnly(t *testing.T) {
	p := Suggest(currentOntology(), candidateOntology())

	if !reflect.DeepEqual(p.NewMap, map[string]string{"New topic": "auto-new-topic"}) {
		t.Fatalf("NewMap = %+v", p.NewMap)
	}
	if _, ok := p.NewCategories["auto-new-topic"]; !ok || len(p.NewCategories) != 1 {
		t.Fatalf("NewCategories = %+v", p.NewCategories)
	}
	if !reflect.DeepEqual(p.NewValueLinks["history"], []string{"T1:v2"}) {
		t.Fatalf("NewValueLinks[history] = %v", p.NewValueLinks["history"])
	}
}

func TestSuggestEmptyWhenIdentical(t *testing.T) {
	if p := Suggest(currentOntology(), currentOntology()); !p.IsEmpty() {
		t.Fatalf("identical ontologies must yield an empty patch: %+v", p)
	}
}

func TestApplyIsPureMerge(t *testing.T) {
	cur := currentOntology()
	p := Suggest(cur, candidateOntology())
	merged := Apply(cur, p)

	// Original untouched.
	if len(cur.Categories) != 1 || len(cur.ValueMap["history"]) != 1 {
		t.Fatal("Apply mutated its input")
	}

	if merged.Map["New topic"] != "auto-new-topic" {
		t.Fatalf("map entry not added: %+v", merged.Map)
	}
	if !reflect.DeepEqual(merged.ValueMap["history"], []string{"T0:v1", "T1:v2"}) {
		t.Fatalf("value links not unioned: %v", merged.ValueMap["history"])
	}

	// Values never travel in a patch.
	if !reflect.DeepEqual(merged.Values, cur.Values) {
		t.Fatal("Apply must not touch values")
	}

	// Applying the same patch again is a no-op.
	again := Apply(merged, p)
	if !reflect.DeepEqual(again, merged) {
		t.Fatal("Apply not idempotent")
	}
}
