package config

import (
	"os"

	"github.com/ensembleai/ensemble/pkg/action"
	"github.com/ensembleai/ensemble/pkg/errors"
	"github.com/ensembleai/ensemble/pkg/llm"
	"github.com/ensembleai/ensemble/pkg/memory"
	"github.com/ensembleai/ensemble/pkg/resilience"
	"github.com/ensembleai/ensemble/pkg/role"
	"github.com/ensembleai/ensemble/pkg/tool"
	"gopkg.in/yaml.v3"
)

// Roster is the declarative team manifest: which roles exist, what each
// watches, and which action a watched tag triggers.
type Roster struct {
	Roles []RoleSpec `yaml:"roles"`
}

// RoleSpec declares one role.
type RoleSpec struct {
	Name    string       `yaml:"name"`
	Profile string       `yaml:"profile"`
	RecallK int          `yaml:"recall_k"`
	Actions []ActionSpec `yaml:"actions"`
}

// ActionSpec declares one trigger→action mapping.
type ActionSpec struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"` // completion (default), tool
	Trigger      string   `yaml:"trigger"`
	SystemPrompt string   `yaml:"system_prompt"`
	Temperature  float64  `yaml:"temperature"`
	MaxTokens    int      `yaml:"max_tokens"`
	Tool         string   `yaml:"tool"`
	Recipients   []string `yaml:"recipients"`
}

// ParseRoster decodes a roster manifest.
func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.New(errors.CodeInvalidRequest, "invalid roster manifest", err)
	}
	if len(r.Roles) == 0 {
		return nil, errors.New(errors.CodeInvalidRequest, "roster declares no roles", nil)
	}
	return &r, nil
}

// LoadRoster reads and decodes a roster manifest file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRoster(data)
}

// BuildDeps carries the runtime pieces a roster needs to become roles.
type BuildDeps struct {
	Provider llm.Provider
	Model    string
	Tools    tool.Invoker
	Retry    resilience.RetryConfig
	LongTerm *memory.LongTerm
}

// Build turns the manifest into roles, in declaration order.
func (r *Roster) Build(deps BuildDeps) ([]*role.Role, error) {
	roles := make([]*role.Role, 0, len(r.Roles))
	for _, spec := range r.Roles {
		built, err := buildRole(spec, deps)
		if err != nil {
			return nil, err
		}
		roles = append(roles, built)
	}
	return roles, nil
}

func buildRole(spec RoleSpec, deps BuildDeps) (*role.Role, error) {
	if spec.Name == "" {
		return nil, errors.New(errors.CodeInvalidRequest, "role without a name", nil)
	}
	if len(spec.Actions) == 0 {
		return nil, errors.New(errors.CodeInvalidRequest, "role declares no actions", nil).
			WithContext("role", spec.Name)
	}

	opts := make([]role.Option, 0, len(spec.Actions)+1)
	triggers := make(map[string]struct{}, len(spec.Actions))
	for _, as := range spec.Actions {
		if as.Name == "" || as.Trigger == "" {
			return nil, errors.New(errors.CodeInvalidRequest, "action needs a name and a trigger", nil).
				WithContext("role", spec.Name)
		}
		if _, dup := triggers[as.Trigger]; dup {
			return nil, errors.New(errors.CodeInvalidRequest, "trigger mapped twice", nil).
				WithContext("role", spec.Name).
				WithContext("trigger", as.Trigger)
		}
		triggers[as.Trigger] = struct{}{}

		act, err := buildAction(as, deps)
		if err != nil {
			return nil, err
		}
		opts = append(opts, role.WithAction(as.Trigger, act))
	}

	if deps.LongTerm != nil && spec.RecallK > 0 {
		opts = append(opts, role.WithLongTerm(deps.LongTerm, spec.RecallK))
	}
	return role.New(spec.Name, spec.Profile, opts...), nil
}

func buildAction(spec ActionSpec, deps BuildDeps) (action.Action, error) {
	switch spec.Kind {
	case "", "completion":
		if deps.Provider == nil {
			return nil, errors.New(errors.CodeInvalidRequest, "completion action without a provider", nil).
				WithContext("action", spec.Name)
		}
		var opts []action.CompletionOption
		if spec.SystemPrompt != "" {
			opts = append(opts, action.WithSystemPrompt(spec.SystemPrompt))
		}
		if spec.Temperature > 0 {
			opts = append(opts, action.WithTemperature(spec.Temperature))
		}
		if spec.MaxTokens > 0 {
			opts = append(opts, action.WithMaxTokens(spec.MaxTokens))
		}
		if len(spec.Recipients) > 0 {
			opts = append(opts, action.WithRecipients(spec.Recipients...))
		}
		return action.NewCompletion(spec.Name, deps.Provider, deps.Model, opts...), nil
	case "tool":
		if deps.Tools == nil {
			return nil, errors.New(errors.CodeInvalidRequest, "tool action without a tool registry", nil).
				WithContext("action", spec.Name)
		}
		if spec.Tool == "" {
			return nil, errors.New(errors.CodeInvalidRequest, "tool action without a tool name", nil).
				WithContext("action", spec.Name)
		}
		return action.NewTool(spec.Name, deps.Tools, spec.Tool, deps.Retry, nil, spec.Recipients...), nil
	default:
		return nil, errors.New(errors.CodeInvalidRequest, "unknown action kind", nil).
			WithContext("action", spec.Name).
			WithContext("kind", spec.Kind)
	}
}
