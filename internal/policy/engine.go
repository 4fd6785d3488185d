package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/spf13/afero"
)

// DefaultPolicyPackage is the default Rego package path evaluated when an
// agent does not declare its own policy_package.
const DefaultPolicyPackage = "orchestrator.policy"

// Engine wraps OPA for policy evaluation. It loads policies from .rego files
// and evaluates them against dispatch input. All evaluation happens locally
// without network calls.
type Engine struct {
	policies      []*PolicyFile
	policyPackage string
}

// EngineConfig holds configuration for creating an Engine.
type EngineConfig struct {
	// VaultRoot is used to resolve the default PoliciesDir.
	VaultRoot string

	// PoliciesDir is the directory containing .rego policy files.
	// If empty, defaults to {VaultRoot}/.orchestrator/policies.
	PoliciesDir string

	// PolicyPackage is the Rego package to query.
	// If empty, defaults to DefaultPolicyPackage.
	PolicyPackage string

	// Fs is the filesystem to use for loading policies. If nil, uses the OS
	// filesystem.
	Fs afero.Fs
}

// NewEngine creates a new policy engine with the given configuration and
// loads policies from the configured directory.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.PoliciesDir == "" && cfg.VaultRoot != "" {
		cfg.PoliciesDir = GetPoliciesPath(cfg.VaultRoot)
	}
	if cfg.PolicyPackage == "" {
		cfg.PolicyPackage = DefaultPolicyPackage
	}

	loader := NewLoader(cfg.Fs, cfg.PoliciesDir)
	policies, err := loader.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}

	return &Engine{
		policies:      policies,
		policyPackage: cfg.PolicyPackage,
	}, nil
}

// NewEngineWithPolicies creates an engine with explicitly provided policies.
// Useful for tests.
func NewEngineWithPolicies(policyPackage string, policies []*PolicyFile) *Engine {
	if policyPackage == "" {
		policyPackage = DefaultPolicyPackage
	}
	return &Engine{policies: policies, policyPackage: policyPackage}
}

// PolicyCount returns the number of loaded policies.
func (e *Engine) PolicyCount() int {
	return len(e.policies)
}

// Evaluate runs all loaded policies against the dispatch input. Returns a
// Decision describing whether the dispatch is allowed. Any strings returned
// by `deny` rules become violations that block dispatch; any returned by
// `warn` rules are surfaced but never block.
func (e *Engine) Evaluate(ctx context.Context, input *DispatchInput) (*Decision, error) {
	if len(e.policies) == 0 {
		return &Decision{
			ID:          uuid.New().String(),
			PolicyPath:  e.policyPackage,
			Result:      ResultAllow,
			Input:       input,
			EvaluatedAt: time.Now().UTC(),
		}, nil
	}

	modules := make([]func(*rego.Rego), len(e.policies))
	for i, p := range e.policies {
		modules[i] = rego.Module(p.Path, p.Content)
	}

	violations, err := e.querySet(ctx, input, "deny", modules)
	if err != nil {
		return nil, fmt.Errorf("query deny rules: %w", err)
	}

	warnings, err := e.querySet(ctx, input, "warn", modules)
	if err != nil {
		warnings = nil
	}

	decision := &Decision{
		ID:          uuid.New().String(),
		PolicyPath:  e.policyPackage,
		Input:       input,
		Warnings:    warnings,
		EvaluatedAt: time.Now().UTC(),
	}
	if len(violations) > 0 {
		decision.Result = ResultDeny
		decision.Violations = violations
	} else {
		decision.Result = ResultAllow
	}
	return decision, nil
}

// querySet queries a set-generating rule (deny or warn) and returns all
// string values produced.
func (e *Engine) querySet(ctx context.Context, input any, ruleName string, modules []func(*rego.Rego)) ([]string, error) {
	query := fmt.Sprintf("data.%s.%s", e.policyPackage, ruleName)

	opts := []func(*rego.Rego){
		rego.Query(query),
		rego.Input(input),
	}
	opts = append(opts, modules...)

	r := rego.New(opts...)
	rs, err := r.Eval(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "undefined") {
			return nil, nil
		}
		return nil, err
	}

	var results []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			if set, ok := expr.Value.([]any); ok {
				for _, item := range set {
					if s, ok := item.(string); ok {
						results = append(results, s)
					}
				}
			}
		}
	}
	return results, nil
}

// ValidatePolicy checks if a policy has valid Rego syntax.
func ValidatePolicy(content string) error {
	_, err := rego.New(
		rego.Query("data"),
		rego.Module("validation.rego", content),
	).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	return nil
}
