// Package query - fork fan-out semantics.
//
// Fork runs each branch pipeline from a clone of the input row, substitutes
// a bare clone for branches that produced nothing (OPTIONAL-match
// semantics), and merges one output row per combination of the Cartesian
// product across branch results, in branch-declaration order.
package query

import "context"

// applyFork executes one fork step.
func (e *Engine) applyFork(ctx context.Context, step Step, rows []*row) ([]*row, error) {
	var out []*row
	for _, r := range rows {
		if _, ok := r.node(step.From); !ok {
			// No source: forward the row unchanged.
			out = append(out, r)
			continue
		}

		branchRows := make([][]*row, len(step.Branches))
		for i, branch := range step.Branches {
			steps := filterBranchSteps(branch, step.From)
			produced, err := e.runSteps(ctx, branch, steps, []*row{r.clone()})
			if err != nil {
				return nil, err
			}
			if len(produced) == 0 {
				produced = []*row{r.clone()}
			}
			branchRows[i] = produced
		}

		out = append(out, mergeCartesian(r, step.From, branchRows)...)
	}
	return out, nil
}

// filterBranchSteps adapts a branch pipeline for execution under a fork:
//
//   - initial Match/MatchByID steps are skipped (the source is already bound)
//   - Alias steps that merely re-register the source alias are skipped
//   - Where steps whose conditions all target the source are skipped (they
//     were applied upstream of the fork)
//   - Hierarchy, OrderBy, Limit, and Skip steps are skipped (they apply to
//     the whole row set before the fork, not per branch)
//   - every Traversal runs as OPTIONAL regardless of its original flag
func filterBranchSteps(branch *Query, source string) []Step {
	var out []Step
	atStart := true
	for _, step := range branch.steps {
		switch step.Kind {
		case StepMatch, StepMatchByID:
			if atStart {
				continue
			}
		case StepAlias:
			if step.Alias == source {
				continue
			}
		case StepWhere:
			if conditionsTargetOnly(branch, step.Conditions, source) {
				continue
			}
		case StepHierarchy, StepOrderBy, StepLimit, StepSkip:
			continue
		case StepTraversal:
			step.Optional = true
		}
		atStart = false
		out = append(out, step)
	}
	return out
}

// conditionsTargetOnly reports whether every condition in the list resolves
// its target to the given internal alias.
func conditionsTargetOnly(q *Query, conditions []Condition, source string) bool {
	for _, cond := range conditions {
		switch cond.Kind {
		case CondAnd, CondOr, CondNot:
			if !conditionsTargetOnly(q, cond.Nested, source) {
				return false
			}
		default:
			internal, err := q.resolveTarget(cond.Target)
			if err != nil || internal != source {
				return false
			}
		}
	}
	return true
}

// mergeCartesian emits one merged row per combination of branch rows, based
// on the input row. Node bindings are copied from every branch row without
// ever overwriting the source alias; edge bindings and computed entries
// union in.
func mergeCartesian(base *row, source string, branchRows [][]*row) []*row {
	combos := []*row{base.clone()}
	for _, produced := range branchRows {
		next := make([]*row, 0, len(combos)*len(produced))
		for _, combo := range combos {
			for _, branchRow := range produced {
				merged := combo.clone()
				for alias, node := range branchRow.nodes {
					if alias == source {
						continue
					}
					merged.nodes[alias] = node
				}
				for alias, edge := range branchRow.edges {
					merged.edges[alias] = edge
				}
				for key, value := range branchRow.computed {
					merged.computed[key] = value
				}
				next = append(next, merged)
			}
		}
		combos = next
	}
	return combos
}
