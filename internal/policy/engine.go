// Package policy evaluates session admission rules written in Rego.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"github.com/IngeLeu/OSARI/internal/domain"
)

const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Decision is the outcome of evaluating a session against the policy.
type Decision struct {
	Decision string   `json:"decision"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Allowed reports whether the session may be created.
func (d Decision) Allowed() bool {
	return d.Decision == DecisionAllow
}

// Limits are operator-side bounds passed to the policy as input.limits.
type Limits struct {
	MaxMainBlocks int `json:"max_main_blocks"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.session_policy"),
		rego.Module("session_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// EvaluateSession checks a session configuration before it is created.
func (e *Engine) EvaluateSession(ctx context.Context, cfg domain.TaskConfig, limits Limits) (Decision, error) {
	input, err := toInput(map[string]interface{}{
		"participant_id": cfg.ParticipantID,
		"config":         cfg,
		"limits":         limits,
	})
	if err != nil {
		return Decision{}, err
	}
	return e.Evaluate(ctx, input)
}

// Evaluate runs the policy against an arbitrary input document.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Decision: DecisionAllow}, nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("policy returned %T, want an object", results[0].Expressions[0].Value)
	}

	d := Decision{Decision: DecisionAllow}
	if s, ok := doc["decision"].(string); ok {
		d.Decision = s
	}
	if deny, ok := doc["deny"].([]interface{}); ok {
		for _, v := range deny {
			if s, ok := v.(string); ok {
				d.Reasons = append(d.Reasons, s)
			}
		}
		sort.Strings(d.Reasons)
	}
	if d.Decision != DecisionAllow && d.Decision != DecisionBlock {
		return Decision{}, fmt.Errorf("unknown policy decision %q", d.Decision)
	}
	return d, nil
}

// toInput turns v into plain JSON values so custom marshalers (durations in
// seconds, numeric signals) are what the policy sees.
func toInput(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode policy input: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode policy input: %w", err)
	}
	return out, nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package session_policy

default decision = "allow"

decision = "block" {
	count(deny) > 0
}

deny[msg] {
	not has_participant
	msg := "participant_id is required"
}

has_participant {
	is_string(input.participant_id)
	trim_space(input.participant_id) != ""
}

# Practice go blocks only make sense without stop signals.
deny[msg] {
	input.config.practice_enabled
	trial := input.config.practice_go_trials[i]
	trial.signal != 0
	msg := sprintf("practice-go trial %d is a stop trial", [i + 1])
}

deny[msg] {
	input.config.method == "staircase"
	input.config.upper_bound_s >= input.config.trial_duration_s
	msg := "upper stop-signal delay bound must be below the trial duration"
}

deny[msg] {
	input.limits.max_main_blocks > 0
	input.config.main_blocks > input.limits.max_main_blocks
	msg := sprintf("at most %d main blocks are allowed", [input.limits.max_main_blocks])
}
`
