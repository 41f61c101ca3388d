package cli

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Filter is a pre-parsed jq expression applied to command results
// before rendering.
type Filter struct {
	expr  string
	query *gojq.Query
}

// ParseFilter parses a jq expression.
func ParseFilter(expr string) (*Filter, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}
	return &Filter{expr: expr, query: query}, nil
}

// Apply runs the filter on a result value. The value is normalized
// through JSON first, since gojq only operates on plain maps, slices,
// and scalars. A filter emitting a single value returns that value;
// one emitting several returns them as a slice.
func (f *Filter) Apply(result any) (any, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("jq: marshal input: %w", err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("jq: normalize input: %w", err)
	}

	var out []any
	iter := f.query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("jq: %w", err)
		}
		out = append(out, v)
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	default:
		return out, nil
	}
}

// String returns the original expression.
func (f *Filter) String() string {
	return f.expr
}
