// Package query - structural validation of the AST.
package query

import (
	"errors"
	"fmt"
)

// Validation and execution errors.
var (
	ErrAliasNotFound = errors.New("alias not registered")
	ErrUnknownStep   = errors.New("unknown step kind")
	ErrUnknownCond   = errors.New("unknown condition kind")
	ErrCardinality   = errors.New("single projection expects exactly one result")
)

// Validate checks that every alias mentioned by a step, condition, or the
// projection is registered in the query's alias tables. It is called by the
// engine before execution; unknown aliases fail with ErrAliasNotFound rather
// than silently producing empty results.
func (q *Query) Validate() error {
	for i, step := range q.steps {
		if err := q.validateStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Kind, err)
		}
	}
	return q.validateProjection()
}

func (q *Query) validateStep(step Step) error {
	switch step.Kind {
	case StepMatch, StepMatchByID:
		return q.requireNodeAlias(step.Alias)
	case StepAlias:
		return nil
	case StepTraversal:
		if err := q.requireNodeAlias(step.From); err != nil {
			return err
		}
		if err := q.requireNodeAlias(step.To); err != nil {
			return err
		}
		return nil
	case StepWhere:
		return q.validateConditions(step.Conditions)
	case StepHierarchy:
		if step.Hierarchy == nil {
			return fmt.Errorf("missing hierarchy spec: %w", ErrUnknownStep)
		}
		if err := q.requireNodeAlias(step.Hierarchy.From); err != nil {
			return err
		}
		return q.requireNodeAlias(step.Hierarchy.To)
	case StepReachable:
		if step.Reachable == nil {
			return fmt.Errorf("missing reachable spec: %w", ErrUnknownStep)
		}
		if err := q.requireNodeAlias(step.Reachable.From); err != nil {
			return err
		}
		return q.requireNodeAlias(step.Reachable.To)
	case StepOrderBy:
		for _, field := range step.Order {
			if field.Target == "" {
				continue // computed key, resolved per row
			}
			if _, err := q.resolveTarget(field.Target); err != nil {
				return err
			}
		}
		return nil
	case StepLimit, StepSkip, StepDistinct:
		return nil
	case StepAggregate:
		for _, group := range step.GroupBy {
			if _, err := q.resolveTarget(group.Alias); err != nil {
				return err
			}
		}
		for _, agg := range step.Aggregations {
			if agg.Source == "" {
				continue
			}
			if _, err := q.resolveTarget(agg.Source); err != nil {
				return err
			}
		}
		return nil
	case StepFork:
		if err := q.requireNodeAlias(step.From); err != nil {
			return err
		}
		for i, branch := range step.Branches {
			if err := branch.Validate(); err != nil {
				return fmt.Errorf("branch %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%q: %w", step.Kind, ErrUnknownStep)
	}
}

func (q *Query) validateConditions(conditions []Condition) error {
	for _, cond := range conditions {
		switch cond.Kind {
		case CondComparison:
			if cond.Target == "" {
				continue // edge condition, evaluated against the candidate edge
			}
			if _, err := q.resolveTarget(cond.Target); err != nil {
				return err
			}
		case CondAnd, CondOr, CondNot:
			if err := q.validateConditions(cond.Nested); err != nil {
				return err
			}
		case CondExists, CondConnected:
			if _, err := q.resolveTarget(cond.Target); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%q: %w", cond.Kind, ErrUnknownCond)
		}
	}
	return nil
}

func (q *Query) validateProjection() error {
	for _, alias := range q.projection.NodeAliases {
		if _, ok := q.nodeAliases[alias]; !ok {
			return fmt.Errorf("projection alias %q: %w", alias, ErrAliasNotFound)
		}
	}
	for _, alias := range q.projection.EdgeAliases {
		if _, ok := q.edgeAliases[alias]; !ok {
			return fmt.Errorf("projection edge alias %q: %w", alias, ErrAliasNotFound)
		}
	}
	for result, spec := range q.projection.Collect {
		if _, ok := q.nodeAliases[spec.Source]; !ok {
			return fmt.Errorf("collect %q source %q: %w", result, spec.Source, ErrAliasNotFound)
		}
	}
	return nil
}

// requireNodeAlias checks that an internal node alias is registered.
func (q *Query) requireNodeAlias(alias string) error {
	if alias == "" {
		return fmt.Errorf("empty alias: %w", ErrAliasNotFound)
	}
	if _, ok := q.nodeLabels[alias]; !ok {
		return fmt.Errorf("%q: %w", alias, ErrAliasNotFound)
	}
	return nil
}

// resolveTarget maps a condition or order target to an internal node alias.
// A user alias resolves through the alias table; an already-internal alias
// passes through when registered.
func (q *Query) resolveTarget(target string) (string, error) {
	if internal, ok := q.nodeAliases[target]; ok {
		return internal, nil
	}
	if _, ok := q.nodeLabels[target]; ok {
		return target, nil
	}
	return "", fmt.Errorf("%q: %w", target, ErrAliasNotFound)
}

// resolveEdgeTarget maps a target to an internal edge alias.
func (q *Query) resolveEdgeTarget(target string) (string, error) {
	if internal, ok := q.edgeAliases[target]; ok {
		return internal, nil
	}
	return "", fmt.Errorf("%q: %w", target, ErrAliasNotFound)
}
