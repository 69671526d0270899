package harvest

import (
	"fmt"
	"maps"
	"strings"

	"github.com/newthinker/harvester/internal/core"
)

// DefaultSchedule is used when a trigger carries no schedule label
const DefaultSchedule = "weekly"

// symbolParam marks a template as per-identifier
const symbolParam = "symbol"

// Symbol is one identifier templates expand over
type Symbol struct {
	Name   string
	Symbol string
}

// RunConfig is the immutable input of one financial run
type RunConfig struct {
	BaseURL       string
	APIKey        string
	APIKeyParam   string
	KeyPrefix     string
	SharedSegment string
	Templates     map[string]map[string]string // function name -> parameter template
	Schedules     map[string][]string          // schedule label -> function names
	Symbols       []Symbol
}

// Expand resolves the schedule label into parameter sets in stable order:
// scheduled functions in configured order, and for per-symbol functions the
// configured symbol order. Unknown labels and functions are configuration errors.
func Expand(cfg RunConfig, schedule string) ([]core.ParameterSet, error) {
	label := strings.ToLower(strings.TrimSpace(schedule))
	if label == "" {
		label = DefaultSchedule
	}

	functions, ok := lookup(cfg.Schedules, label)
	if !ok {
		return nil, core.WrapError(core.ErrUnknownSchedule, fmt.Errorf("invalid schedule type %q", schedule))
	}

	keyParam := cfg.APIKeyParam
	if keyParam == "" {
		keyParam = "apikey"
	}

	var sets []core.ParameterSet
	for _, name := range functions {
		tmpl, ok := lookup(cfg.Templates, strings.ToLower(name))
		if !ok {
			return nil, core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("schedule %q references function %q with no template", label, name))
		}

		function := tmpl["function"]
		if function == "" {
			function = strings.ToUpper(name)
		}

		if _, perSymbol := tmpl[symbolParam]; !perSymbol {
			sets = append(sets, newParameterSet(tmpl, function, "", keyParam, cfg.APIKey))
			continue
		}
		for _, s := range cfg.Symbols {
			sets = append(sets, newParameterSet(tmpl, function, s.Symbol, keyParam, cfg.APIKey))
		}
	}

	return sets, nil
}

func newParameterSet(tmpl map[string]string, function, symbol, keyParam, apiKey string) core.ParameterSet {
	params := maps.Clone(tmpl)
	if params == nil {
		params = make(map[string]string)
	}
	params["function"] = function
	if symbol != "" {
		params[symbolParam] = symbol
	}
	params[keyParam] = apiKey

	return core.ParameterSet{
		Function: function,
		Symbol:   symbol,
		Params:   params,
	}
}

// lookup matches map keys case-insensitively; viper lower-cases them on load
// but programmatic configs may not.
func lookup[V any](m map[string]V, key string) (V, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	var zero V
	return zero, false
}
