package selectorvm

import (
	"errors"
	"strings"
	"testing"
)

// divSpanProgram matches "div span" with payload 7.
func divSpanProgram() *Program[int] {
	return &Program[int]{
		Instructions: []Instruction[int]{
			{
				LocalNameExprs:   []LocalNameExpr{nameIs("div")},
				AssociatedBranch: ExecutionBranch[int]{HereditaryJumps: rng(1, 2)},
			},
			{
				LocalNameExprs:   []LocalNameExpr{nameIs("span")},
				AssociatedBranch: ExecutionBranch[int]{MatchedPayload: []int{7}},
			},
		},
		EntryPoints: AddressRange{Start: 0, End: 1},
	}
}

func TestMatcherHereditaryThroughIntermediates(t *testing.T) {
	m := NewMatcher(divSpanProgram())
	wantPayload(t, "div", m.Enter(elem("div", nil), true))
	wantPayload(t, "p", m.Enter(elem("p", nil), true))
	wantPayload(t, "span", m.Enter(elem("span", nil), true), 7)
	m.Leave(LocalNameFromString("span"))
	for range 5 {
		m.Enter(elem("section", nil), true)
	}
	wantPayload(t, "deep span", m.Enter(elem("span", nil), false), 7)
}

func TestMatcherHereditaryEndsAtAncestorClose(t *testing.T) {
	m := NewMatcher(divSpanProgram())
	m.Enter(elem("div", nil), true)
	m.Enter(elem("p", nil), true)
	if _, depth := m.Leave(LocalNameFromString("div")); depth != 1 {
		t.Fatalf("Leave(div) depth = %d, want 1", depth)
	}
	if m.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0", m.Depth())
	}
	wantPayload(t, "span after div closed", m.Enter(elem("span", nil), false))
}

func TestMatcherChildJumpsApplyToDirectChildrenOnly(t *testing.T) {
	// ul > li
	program := &Program[int]{
		Instructions: []Instruction[int]{
			{
				LocalNameExprs:   []LocalNameExpr{nameIs("ul")},
				AssociatedBranch: ExecutionBranch[int]{Jumps: rng(1, 2)},
			},
			{
				LocalNameExprs:   []LocalNameExpr{nameIs("li")},
				AssociatedBranch: ExecutionBranch[int]{MatchedPayload: []int{1}},
			},
		},
		EntryPoints: AddressRange{Start: 0, End: 1},
	}
	m := NewMatcher(program)
	m.Enter(elem("ul", nil), true)
	wantPayload(t, "direct li", m.Enter(elem("li", nil), true), 1)
	wantPayload(t, "nested li", m.Enter(elem("li", nil), true))
	m.Leave(LocalNameFromString("li"))
	m.Leave(LocalNameFromString("li"))
	wantPayload(t, "second direct li", m.Enter(elem("li", nil), false), 1)
}

func TestMatcherUnionsAlternatives(t *testing.T) {
	program := &Program[int]{
		Instructions: []Instruction[int]{
			{LocalNameExprs: []LocalNameExpr{nameIs("a")}, AssociatedBranch: ExecutionBranch[int]{MatchedPayload: []int{1}}},
			{AttributeExprs: []AttributeExpr{attrIs("href", "/")}, AssociatedBranch: ExecutionBranch[int]{MatchedPayload: []int{2, 1}}},
			{LocalNameExprs: []LocalNameExpr{nameIs("b")}, AssociatedBranch: ExecutionBranch[int]{MatchedPayload: []int{3}}},
		},
		EntryPoints: AddressRange{Start: 0, End: 3},
	}
	m := NewMatcher(program)
	got := m.Enter(elem("a", attrMap{"href": "/"}), false)
	wantPayload(t, "a[href]", got, 1, 2)
	if len(got) != 2 {
		t.Fatalf("payload %v contains duplicates", got)
	}
}

func TestMatcherFetchesAttributesOnlyWhenRequired(t *testing.T) {
	program := &Program[int]{
		Instructions: []Instruction[int]{
			{LocalNameExprs: []LocalNameExpr{nameIs("img")}, AttributeExprs: []AttributeExpr{attrIs("alt", "")}},
			{LocalNameExprs: []LocalNameExpr{nameIs("p")}, AssociatedBranch: ExecutionBranch[int]{MatchedPayload: []int{1}}},
		},
		EntryPoints: AddressRange{Start: 0, End: 2},
	}
	m := NewMatcher(program)

	p := elem("p", attrMap{"alt": ""})
	wantPayload(t, "p", m.Enter(p, false), 1)
	if p.fetched != 0 {
		t.Fatalf("p attributes fetched %d times, want 0", p.fetched)
	}

	img := elem("img", attrMap{"alt": ""})
	m.Enter(img, false)
	if img.fetched != 1 {
		t.Fatalf("img attributes fetched %d times, want 1", img.fetched)
	}

	ready := elem("img", attrMap{"alt": ""})
	ready.ready = true
	m.Enter(ready, false)
	if ready.fetched != 1 {
		t.Fatalf("ready attributes fetched %d times, want 1", ready.fetched)
	}
}

func TestMatcherSiblingCounters(t *testing.T) {
	var seen []SelectorState
	record := func(s *SelectorState, _ LocalName) bool {
		seen = append(seen, *s)
		return false
	}
	for _, tt := range []struct {
		name  string
		flags ProgramFlags
		want  []SelectorState
	}{
		{
			name: "index only",
			want: []SelectorState{{index: 1}, {index: 1}, {index: 2}, {index: 3}},
		},
		{
			name:  "nth-of-type",
			flags: FlagNthOfType,
			want:  []SelectorState{{index: 1, indexOfType: 1}, {index: 1, indexOfType: 1}, {index: 2, indexOfType: 1}, {index: 3, indexOfType: 2}},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			m := NewMatcher(&Program[int]{
				Instructions: []Instruction[int]{{LocalNameExprs: []LocalNameExpr{record}}},
				EntryPoints:  AddressRange{Start: 0, End: 1},
				Flags:        tt.flags,
			})
			m.Enter(elem("ul", nil), true)
			m.Enter(elem("li", nil), false)
			m.Enter(elem("p", nil), false)
			m.Enter(elem("li", nil), false)
			if len(seen) != len(tt.want) {
				t.Fatalf("states = %v, want %v", seen, tt.want)
			}
			for i := range seen {
				if seen[i] != tt.want[i] {
					t.Fatalf("state %d = %+v, want %+v", i, seen[i], tt.want[i])
				}
			}
		})
	}
}

func TestMatcherLeaveUnknownIsIgnored(t *testing.T) {
	m := NewMatcher(divSpanProgram())
	m.Enter(elem("div", nil), true)
	payload, depth := m.Leave(LocalNameFromString("table"))
	if payload != nil || depth != 0 {
		t.Fatalf("Leave(table) = %v, %d, want nil, 0", payload, depth)
	}
	if m.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", m.Depth())
	}
	m.Reset()
	if m.Depth() != 0 {
		t.Fatalf("Depth() after Reset = %d, want 0", m.Depth())
	}
}

func TestMatcherLeaveReturnsClosedPayload(t *testing.T) {
	m := NewMatcher(divSpanProgram())
	m.Enter(elem("div", nil), true)
	m.Enter(elem("span", nil), true)
	payload, depth := m.Leave(LocalNameFromString("span"))
	wantPayload(t, "closed span", payload, 7)
	if depth != 2 {
		t.Fatalf("depth = %d, want 2", depth)
	}
}

func TestNewMatcherRejectsInvalidProgram(t *testing.T) {
	bad := &Program[int]{
		Instructions: []Instruction[int]{{AssociatedBranch: ExecutionBranch[int]{Jumps: rng(0, 3)}}},
		EntryPoints:  AddressRange{Start: 0, End: 1},
	}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("Validate() error = %v, want ErrInvalidRange", err)
	}
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("NewMatcher did not panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "jumps") {
			t.Fatalf("panic = %v, want jumps range message", r)
		}
	}()
	NewMatcher(bad)
}

func TestProgramValidate(t *testing.T) {
	tests := []struct {
		name    string
		program *Program[int]
		wantErr bool
	}{
		{name: "nil", program: nil, wantErr: true},
		{name: "empty", program: &Program[int]{}},
		{name: "entry out of bounds", program: &Program[int]{EntryPoints: AddressRange{Start: 0, End: 1}}, wantErr: true},
		{name: "inverted entry", program: &Program[int]{Instructions: make([]Instruction[int], 2), EntryPoints: AddressRange{Start: 2, End: 1}}, wantErr: true},
		{
			name: "bad hereditary",
			program: &Program[int]{
				Instructions: []Instruction[int]{{AssociatedBranch: ExecutionBranch[int]{HereditaryJumps: rng(-1, 0)}}},
			},
			wantErr: true,
		},
		{name: "valid", program: divSpanProgram()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.program.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
