package expression

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tsugiapp/tsugi/pkg/feed"
	"github.com/tsugiapp/tsugi/pkg/regex"
)

type CompiledExpression struct {
	Program *vm.Program
	Text    string
}

// Expressions holds the compiled feed-entry filters from config.
type Expressions struct {
	Ignores []CompiledExpression
}

// evalContext is the environment feed filter expressions run against.
type evalContext struct {
	Title        string
	Link         string
	Series       string
	Episode      string
	SourceDomain string
}

func (e *evalContext) RegexMatch(pattern string) bool {
	p, err := regex.Compile(pattern)
	if err != nil {
		return false
	}

	match, err := regex.Check(e.Title, p)
	if err != nil {
		return false
	}

	return match
}

var regexFuncPattern = regexp2.MustCompile(`RegexMatch\("([^"\\]*(?:\\.[^"\\]*)*)"\)`, regexp2.None)

// Compile validates and compiles the configured ignore expressions. Regex
// patterns referenced inside expressions are validated up front so a bad
// pattern fails startup instead of silently never matching.
func Compile(ignores []string) (*Expressions, error) {
	patterns, err := extractRegexPatterns(ignores)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	if err := regex.ValidatePatterns(patterns); err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	exp := new(Expressions)

	for _, ignoreExpr := range ignores {
		program, err := expr.Compile(ignoreExpr, expr.Env(&evalContext{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile ignore expression: %q: %w", ignoreExpr, err)
		}

		exp.Ignores = append(exp.Ignores, CompiledExpression{Program: program, Text: ignoreExpr})
	}

	return exp, nil
}

// CheckEntryMatch reports whether any expression matches the entry, returning
// the text of the first matching expression.
func CheckEntryMatch(entry feed.Entry, expressions []CompiledExpression) (bool, string, error) {
	env := &evalContext{
		Title:        entry.Title,
		Link:         entry.Link,
		Series:       entry.Series(),
		Episode:      entry.Episode(),
		SourceDomain: entry.SourceDomain(),
	}

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, "", fmt.Errorf("check expression: %w", err)
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, "", fmt.Errorf("expression %q did not evaluate to bool", expression.Text)
		}

		if expResult {
			return true, expression.Text, nil
		}
	}

	return false, "", nil
}

func extractRegexPatterns(expressions []string) ([]string, error) {
	var patterns []string

	for _, e := range expressions {
		m, err := regexFuncPattern.FindStringMatch(e)
		if err != nil {
			return nil, err
		}

		for m != nil {
			if len(m.Groups()) > 1 {
				patterns = append(patterns, m.Groups()[1].String())
			}

			m, err = regexFuncPattern.FindNextMatch(m)
			if err != nil {
				return nil, err
			}
		}
	}

	return patterns, nil
}
