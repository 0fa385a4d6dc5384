package classifier

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/cel-go/cel"

	"vedexpert/internal/util"
)

// CustomRule is one [[rule]] table of a rules file.
type CustomRule struct {
	Name        string   `toml:"name"`
	When        string   `toml:"when"`
	Code        string   `toml:"code"`
	Description string   `toml:"description"`
	Duty        string   `toml:"duty"`
	VAT         string   `toml:"vat"`
	Documents   []string `toml:"documents"`
}

type rulesFile struct {
	Rules []CustomRule `toml:"rule"`
}

// LoadRules reads and compiles a TOML rules file. An empty path yields no rules.
func LoadRules(path string) ([]Rule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	var file rulesFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode rules %s: %w", path, err)
	}
	return CompileRules(file.Rules)
}

// ParseRules compiles rules from TOML text.
func ParseRules(data string) ([]Rule, error) {
	var file rulesFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return CompileRules(file.Rules)
}

func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("material", cel.StringType),
		cel.Variable("function", cel.StringType),
		cel.Variable("origin", cel.StringType),
	)
}

func CompileRules(defs []CustomRule) ([]Rule, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	env, err := newRuleEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	out := make([]Rule, 0, len(defs))
	for i, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			name = fmt.Sprintf("rule_%d", i+1)
		}
		code := util.NormalizeCode(def.Code)
		if len(code) != 10 {
			return nil, fmt.Errorf("rule %s: code must have 10 digits, got %q", name, def.Code)
		}
		if strings.TrimSpace(def.When) == "" {
			return nil, fmt.Errorf("rule %s: when expression is empty", name)
		}

		ast, issues := env.Compile(def.When)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: compile %q: %w", name, def.When, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: expression must be boolean, got %s", name, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %s: program: %w", name, err)
		}

		res := Resolution{
			Code:        code,
			Description: def.Description,
			DutyRate:    def.Duty,
			VATRate:     def.VAT,
			Documents:   append([]string(nil), def.Documents...),
		}
		ruleName := name
		out = append(out, Rule{
			Category: "custom:" + ruleName,
			Match: func(f Fields) bool {
				val, _, err := prg.Eval(map[string]any{
					"name":     f.Name,
					"material": f.Material,
					"function": f.Function,
					"origin":   f.Origin,
				})
				if err != nil {
					slog.Warn("custom rule evaluation failed", "rule", ruleName, "err", err)
					return false
				}
				matched, ok := val.Value().(bool)
				return ok && matched
			},
			Resolve: func(Fields) Resolution { return res },
		})
	}
	return out, nil
}
