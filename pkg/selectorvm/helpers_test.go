package selectorvm

import (
	"slices"
	"testing"
)

type attrMap map[string]string

func (a attrMap) Value(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

type testElement struct {
	attrs   attrMap
	name    LocalName
	fetched int
	ready   bool
}

func elem(name string, attrs attrMap) *testElement {
	return &testElement{name: LocalNameFromString(name), attrs: attrs}
}

func (e *testElement) LocalName() LocalName { return e.name }

func (e *testElement) Attributes() AttributeMatcher {
	e.fetched++
	return e.attrs
}

func (e *testElement) AttributesReady() bool { return e.ready }

func nameIs(name string) LocalNameExpr {
	want := LocalNameFromString(name)
	return func(_ *SelectorState, got LocalName) bool { return got == want }
}

func attrIs(name, value string) AttributeExpr {
	return func(_ *SelectorState, attrs AttributeMatcher) bool {
		v, ok := attrs.Value(name)
		return ok && v == value
	}
}

func rng(start, end int) *AddressRange {
	return &AddressRange{Start: start, End: end}
}

func sorted(payload []int) []int {
	out := slices.Clone(payload)
	slices.Sort(out)
	return out
}

func wantPayload(t *testing.T, step string, got []int, want ...int) {
	t.Helper()
	if !slices.Equal(sorted(got), sorted(want)) {
		t.Fatalf("%s payload = %v, want %v", step, got, want)
	}
}
