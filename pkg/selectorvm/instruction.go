package selectorvm

// TryExecKind classifies the result of a match attempt made before
// attributes are available.
type TryExecKind uint8

const (
	// ResultFail means the tag-name predicates already rule the instruction out.
	ResultFail TryExecKind = iota
	// ResultBranch means the instruction matched without needing attributes.
	ResultBranch
	// ResultAttributesRequired means the tag-name predicates passed and
	// attribute predicates remain.
	ResultAttributesRequired
)

func (k TryExecKind) String() string {
	switch k {
	case ResultBranch:
		return "branch"
	case ResultAttributesRequired:
		return "attributes-required"
	default:
		return "fail"
	}
}

// TryExecResult is the result of TryExecWithoutAttrs.
// Branch is set only for ResultBranch.
type TryExecResult[P comparable] struct {
	Branch *ExecutionBranch[P]
	Kind   TryExecKind
}

// Instruction guards an ExecutionBranch with conjunctive predicates.
type Instruction[P comparable] struct {
	AssociatedBranch ExecutionBranch[P]
	LocalNameExprs   []LocalNameExpr
	AttributeExprs   []AttributeExpr
}

// TryExecWithoutAttrs evaluates the tag-name predicates only.
func (i *Instruction[P]) TryExecWithoutAttrs(state *SelectorState, name LocalName) TryExecResult[P] {
	if !i.matchLocalName(state, name) {
		return TryExecResult[P]{Kind: ResultFail}
	}
	if len(i.AttributeExprs) == 0 {
		return TryExecResult[P]{Kind: ResultBranch, Branch: &i.AssociatedBranch}
	}
	return TryExecResult[P]{Kind: ResultAttributesRequired}
}

// CompleteExecWithAttrs evaluates the attribute predicates after
// TryExecWithoutAttrs reported ResultAttributesRequired. Tag-name predicates
// are not evaluated again.
func (i *Instruction[P]) CompleteExecWithAttrs(state *SelectorState, attrs AttributeMatcher) *ExecutionBranch[P] {
	if !i.matchAttributes(state, attrs) {
		return nil
	}
	return &i.AssociatedBranch
}

// Exec evaluates both predicate lists in one call.
func (i *Instruction[P]) Exec(state *SelectorState, name LocalName, attrs AttributeMatcher) *ExecutionBranch[P] {
	if !i.matchLocalName(state, name) || !i.matchAttributes(state, attrs) {
		return nil
	}
	return &i.AssociatedBranch
}

func (i *Instruction[P]) matchLocalName(state *SelectorState, name LocalName) bool {
	for _, expr := range i.LocalNameExprs {
		if !expr(state, name) {
			return false
		}
	}
	return true
}

func (i *Instruction[P]) matchAttributes(state *SelectorState, attrs AttributeMatcher) bool {
	for _, expr := range i.AttributeExprs {
		if !expr(state, attrs) {
			return false
		}
	}
	return true
}
