// Package selectorvm matches compiled selectors against a forward-only
// stream of start and end tags.
//
// A Program is a flat table of instructions. Each instruction guards an
// ExecutionBranch with tag-name predicates and attribute predicates; a branch
// names the payloads it satisfies and the address ranges to try for the
// element's direct children (Jumps) and for all of its descendants
// (HereditaryJumps). Matcher drives a Program over an open-element stack
// without building a document tree.
package selectorvm
