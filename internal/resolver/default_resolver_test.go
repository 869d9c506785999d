package resolver

import (
	"context"
	"reflect"
	"testing"
)

type decoder interface{ Decode() }
type player interface{ Play() }
type settings struct{}

var (
	decoderKey  = reflect.TypeOf((*decoder)(nil)).Elem()
	playerKey   = reflect.TypeOf((*player)(nil)).Elem()
	settingsKey = reflect.TypeOf(&settings{})
)

func TestDefaultResolver_BindsCollectionToEveryProvider(t *testing.T) {
	r := NewDefault()

	in := Input{
		Providers: []Provider{
			{Node: 0, Component: "wav", Key: decoderKey},
			{Node: 1, Component: "flac", Key: decoderKey},
			{Node: 2, Component: "player", Key: playerKey},
		},
		Requirements: []Requirement{
			{Node: 2, Component: "player", Param: 0, Key: decoderKey, Multiplicity: MultiplicityMany},
		},
	}

	plan, err := r.Resolve(context.Background(), in)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(plan.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %+v", plan.Bindings)
	}
	for i, want := range []int{0, 1} {
		if plan.Bindings[i].Provider != want || plan.Bindings[i].Consumer != 2 {
			t.Fatalf("binding %d: expected %d -> 2, got %+v", i, want, plan.Bindings[i])
		}
	}
	if len(plan.Diagnostics.UnresolvedRequired)+len(plan.Diagnostics.UnresolvedOptional) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", plan.Diagnostics)
	}
}

func TestDefaultResolver_ExternalRequirementsProduceNoBindings(t *testing.T) {
	r := NewDefault()

	in := Input{
		Providers: []Provider{
			{Node: 0, Component: "player", Key: playerKey},
		},
		Requirements: []Requirement{
			{Node: 0, Component: "player", Param: 0, Key: settingsKey, External: true},
		},
	}

	plan, err := r.Resolve(context.Background(), in)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(plan.Bindings) != 0 {
		t.Fatalf("expected no bindings, got %+v", plan.Bindings)
	}
	if len(plan.Diagnostics.UnresolvedRequired) != 0 {
		t.Fatalf("expected external requirement to be satisfied, got %+v", plan.Diagnostics.UnresolvedRequired)
	}
}

func TestDefaultResolver_ReportsUnresolved(t *testing.T) {
	r := NewDefault()

	in := Input{
		Providers: []Provider{
			{Node: 0, Component: "wav", Key: decoderKey},
			{Node: 1, Component: "flac", Key: decoderKey},
			{Node: 2, Component: "player", Key: playerKey},
		},
		Requirements: []Requirement{
			{Node: 2, Component: "player", Param: 0, Key: settingsKey},
			{Node: 2, Component: "player", Param: 1, Key: decoderKey},
			{Node: 2, Component: "player", Param: 2, Key: playerKey, Multiplicity: MultiplicityMany},
			{Node: 0, Component: "wav", Param: 0, Key: reflect.TypeOf(""), Multiplicity: MultiplicityMany},
		},
	}

	plan, err := r.Resolve(context.Background(), in)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	required := plan.Diagnostics.UnresolvedRequired
	if len(required) != 2 {
		t.Fatalf("expected 2 unresolved required, got %+v", required)
	}
	if required[0].Param != 0 || required[0].Reason != ReasonNoProvider {
		t.Fatalf("expected missing settings first, got %+v", required[0])
	}
	if required[1].Param != 1 || required[1].Reason != ReasonMultipleProviders {
		t.Fatalf("expected ambiguous decoder second, got %+v", required[1])
	}
	if len(required[1].Providers) != 2 {
		t.Fatalf("expected both decoders listed, got %v", required[1].Providers)
	}

	optional := plan.Diagnostics.UnresolvedOptional
	if len(optional) != 1 || optional[0].Component != "wav" {
		t.Fatalf("expected empty collection on wav to be optional, got %+v", optional)
	}
}

func TestDefaultResolver_ReportsRoots(t *testing.T) {
	r := NewDefault()

	in := Input{
		Providers: []Provider{
			{Node: 0, Component: "a", Key: decoderKey},
			{Node: 1, Component: "b", Key: playerKey},
			{Node: 2, Component: "c", Key: settingsKey},
		},
		Requirements: []Requirement{
			{Node: 2, Component: "c", Param: 0, Key: playerKey},
		},
	}

	plan, err := r.Resolve(context.Background(), in)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !reflect.DeepEqual(plan.Roots, []int{0, 2}) {
		t.Fatalf("expected roots [0 2], got %v", plan.Roots)
	}
}

func TestDefaultResolver_Deterministic(t *testing.T) {
	r := NewDefault()

	in := Input{
		Providers: []Provider{
			{Node: 3, Component: "d", Key: decoderKey},
			{Node: 1, Component: "b", Key: decoderKey},
		},
		Requirements: []Requirement{
			{Node: 2, Component: "c", Param: 1, Key: decoderKey, Multiplicity: MultiplicityMany},
			{Node: 0, Component: "a", Param: 0, Key: decoderKey, Multiplicity: MultiplicityMany},
		},
	}

	first, err := r.Resolve(context.Background(), in)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	want := []Binding{
		{Provider: 1, Consumer: 0, Param: 0, Key: decoderKey},
		{Provider: 3, Consumer: 0, Param: 0, Key: decoderKey},
		{Provider: 1, Consumer: 2, Param: 1, Key: decoderKey},
		{Provider: 3, Consumer: 2, Param: 1, Key: decoderKey},
	}
	if !reflect.DeepEqual(first.Bindings, want) {
		t.Fatalf("unexpected bindings:\n got %+v\nwant %+v", first.Bindings, want)
	}
}
