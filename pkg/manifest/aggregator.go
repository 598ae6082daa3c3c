package manifest

import (
	"fmt"

	"github.com/twinfer/plistreader/internal/cel"
	"github.com/twinfer/plistreader/internal/render"
)

// aggregator collects decoded documents in the order they are pushed
type aggregator struct {
	mode    Format
	query   *cel.Query
	results []Result
}

// format applies the optional query and converts the decoded tree into the
// configured output mode
func (a *aggregator) format(r Result) (Result, error) {
	content := r.Content
	if a.query != nil {
		projected, err := a.query.Eval(content, r.Filename)
		if err != nil {
			return r, fmt.Errorf("query: %w", err)
		}
		content = projected
	}
	rendered, err := render.Render(content, a.mode)
	if err != nil {
		return r, fmt.Errorf("rendering %s: %w", a.mode, err)
	}
	return Result{Filename: r.Filename, Content: rendered}, nil
}

func (a *aggregator) push(r Result) {
	a.results = append(a.results, r)
}

// snapshot returns a copy of the results collected so far
func (a *aggregator) snapshot() []Result {
	out := make([]Result, len(a.results))
	copy(out, a.results)
	return out
}
