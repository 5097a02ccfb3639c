package regex

import (
	"sync"

	"github.com/dlclark/regexp2"
)

type Pattern struct {
	Expression *regexp2.Regexp
}

// compiled patterns are reused across filter evaluations
var (
	cacheMu sync.RWMutex
	cache   = map[string]*Pattern{}
)

func Compile(pattern string) (*Pattern, error) {
	cacheMu.RLock()
	if p, ok := cache[pattern]; ok {
		cacheMu.RUnlock()
		return p, nil
	}
	cacheMu.RUnlock()

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}

	p := &Pattern{Expression: re}

	cacheMu.Lock()
	cache[pattern] = p
	cacheMu.Unlock()

	return p, nil
}

func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := Compile(pattern); err != nil {
			return err
		}
	}
	return nil
}

func Check(text string, pattern *Pattern) (bool, error) {
	match, err := pattern.Expression.MatchString(text)
	if err != nil {
		return false, err
	}
	return match, nil
}

// CheckAny returns true if any pattern matches
func CheckAny(text string, patterns []*Pattern) (bool, error) {
	for _, pattern := range patterns {
		match, err := Check(text, pattern)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
