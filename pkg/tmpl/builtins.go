package tmpl

import "fmt"

// Builtins are bound in the outermost frame of every render. Engines copy
// the map when they are created.
var Builtins = map[string]any{
	"range": Func(rangeFunc),
}

const maxRange = 1 << 20

// rangeFunc implements range(stop) and range(start, stop[, step]).
func rangeFunc(args ...any) (any, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, fmt.Errorf("range expects 1 to 3 arguments, got %d", len(args))
	}
	bounds := make([]int, len(args))
	for i, a := range args {
		n, err := toInt(a)
		if err != nil {
			return nil, fmt.Errorf("range: %w", err)
		}
		bounds[i] = n
	}
	start, stop, step := 0, bounds[0], 1
	if len(bounds) > 1 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) > 2 {
		step = bounds[2]
	}
	if step == 0 {
		return nil, fmt.Errorf("range step must not be zero")
	}
	out := []any{}
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		if len(out) == maxRange {
			return nil, fmt.Errorf("range longer than %d", maxRange)
		}
		out = append(out, i)
	}
	return out, nil
}
