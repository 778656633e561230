package rules

import (
	"slices"

	"github.com/jacoelho/tagstream/internal/dispatch"
)

// Controller applies a rule set to a stream. Content of elements whose
// rules replace or remove it is dropped until the element closes.
type Controller struct {
	rules []Rule
	// suppressDepth is the depth of the element whose content is dropped,
	// or 0.
	suppressDepth int
	order         []int
}

var _ dispatch.Controller[int] = (*Controller)(nil)

// NewController returns a controller for set.
func NewController(set Set) *Controller {
	return &Controller{rules: set.Rules}
}

// InitialCaptureFlags captures nothing: only tags are rewritten until
// content must be dropped.
func (c *Controller) InitialCaptureFlags() dispatch.CaptureFlags {
	return 0
}

// CaptureFlags captures text and comments while content is dropped.
func (c *Controller) CaptureFlags() dispatch.CaptureFlags {
	if c.suppressDepth > 0 {
		return dispatch.CaptureText | dispatch.CaptureComments
	}
	return 0
}

// HandleStartTag applies the before, prepend and inner actions.
func (c *Controller) HandleStartTag(el *dispatch.Element[int]) (dispatch.Rewrite, error) {
	if c.suppressDepth > 0 {
		return dispatch.Rewrite{Remove: true}, nil
	}
	if !el.Matched() {
		return dispatch.Rewrite{}, nil
	}

	var (
		rw       dispatch.Rewrite
		suppress bool
	)
	for _, idx := range c.sorted(el.Payload()) {
		rule := c.rules[idx]
		rw.Before = append(rw.Before, rule.Before...)
		if rule.Unwrap || rule.Remove {
			rw.Remove = true
		}
		if el.Depth() == 0 {
			rw.After = append(rw.After, rule.After...)
			continue
		}
		if rule.Remove {
			suppress = true
			continue
		}
		rw.After = append(rw.After, rule.Prepend...)
		if rule.Inner != nil {
			rw.After = append(rw.After, *rule.Inner...)
			suppress = true
		}
	}
	if suppress {
		c.suppressDepth = el.Depth()
	}
	return rw, nil
}

// HandleEndTag applies the append and after actions.
func (c *Controller) HandleEndTag(tag *dispatch.EndTag[int]) (dispatch.Rewrite, error) {
	if c.suppressDepth > 0 {
		if tag.Depth == 0 || tag.Depth > c.suppressDepth {
			return dispatch.Rewrite{Remove: true}, nil
		}
		c.suppressDepth = 0
	}
	if len(tag.Payload) == 0 {
		return dispatch.Rewrite{}, nil
	}

	var rw dispatch.Rewrite
	for _, idx := range c.sorted(tag.Payload) {
		rule := c.rules[idx]
		if !rule.Remove {
			rw.Before = append(rw.Before, rule.Append...)
		}
		if rule.Unwrap || rule.Remove {
			rw.Remove = true
		}
		rw.After = append(rw.After, rule.After...)
	}
	return rw, nil
}

// HandleToken drops captured text and comments.
func (c *Controller) HandleToken(*dispatch.Token) (dispatch.Rewrite, error) {
	if c.suppressDepth > 0 {
		return dispatch.Rewrite{Remove: true}, nil
	}
	return dispatch.Rewrite{}, nil
}

// sorted returns payload in rule order so actions apply in file order.
func (c *Controller) sorted(payload []int) []int {
	c.order = append(c.order[:0], payload...)
	slices.Sort(c.order)
	return c.order
}
