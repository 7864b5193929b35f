package checker

import (
	"slices"
	"strings"

	"twaddle/interpreter-go/pkg/ast"
)

func (c *Checker) checkLookup(q *ast.Lookup) []Diagnostic {
	diags := c.checkLabels(q)
	if c.opts.Dictionaries == nil {
		return diags
	}
	dict, err := c.opts.Dictionaries.Dictionary(q.Dictionary)
	if err != nil {
		return append(diags, c.errorf(q, "%v", err))
	}
	if q.Form != "" && !slices.Contains(dict.Forms, q.Form) {
		diags = append(diags, c.errorf(q, "lookup <%s>: unknown form '%s' (forms: %s)", q.Dictionary, q.Form, strings.Join(dict.Forms, ", ")))
	}
	tags := dict.Tags()
	for _, tag := range append(slices.Clone(q.PositiveTags), q.NegativeTags...) {
		if slices.Contains(tags, tag) {
			continue
		}
		d := c.warnf(q, "lookup <%s>: unknown tag '%s'", q.Dictionary, tag)
		if c.opts.Strict || q.Strict {
			d.Severity = SeverityError
		}
		diags = append(diags, d)
	}
	if dict.Len() == 0 {
		diags = append(diags, c.warnf(q, "lookup <%s>: dictionary has no entries", q.Dictionary))
	}
	return diags
}

// checkLabels records the labels q binds and warns about exclusions of
// labels nothing earlier in the pattern bound.
func (c *Checker) checkLabels(q *ast.Lookup) []Diagnostic {
	bound := c.labels[q.Dictionary]
	if bound == nil {
		bound = make(map[string]bool)
		c.labels[q.Dictionary] = bound
	}
	var diags []Diagnostic
	for _, label := range q.NegativeLabels {
		if !bound[label] {
			diags = append(diags, c.warnf(q, "lookup <%s>: label '%s' is excluded before it is bound", q.Dictionary, label))
		}
	}
	if q.PositiveLabel != "" {
		bound[q.PositiveLabel] = true
	}
	for _, label := range q.RedefineLabels {
		bound[label] = true
	}
	return diags
}
