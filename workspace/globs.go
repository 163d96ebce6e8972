package workspace

import (
	"fmt"

	"github.com/gobwas/glob"
)

// IncludeExcludeGlobs decides whether a relative path is allowed: an empty
// include list means "all", an empty exclude list means "none"; include is
// evaluated first (as a whitelist when non-empty), then exclude is applied
// on top of whatever include allowed.
type IncludeExcludeGlobs struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewIncludeExcludeGlobs compiles include/exclude pattern lists.
func NewIncludeExcludeGlobs(include, exclude []string) (*IncludeExcludeGlobs, error) {
	inc, err := compileGlobs(include)
	if err != nil {
		return nil, fmt.Errorf("compile include globs: %w", err)
	}
	exc, err := compileGlobs(exclude)
	if err != nil {
		return nil, fmt.Errorf("compile exclude globs: %w", err)
	}
	return &IncludeExcludeGlobs{include: inc, exclude: exc}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Allowed reports whether relPath (forward-slash, relative) passes the
// include whitelist (if any) and is not excluded.
func (g *IncludeExcludeGlobs) Allowed(relPath string) bool {
	if len(g.include) > 0 && !matchAny(g.include, relPath) {
		return false
	}
	if matchAny(g.exclude, relPath) {
		return false
	}
	return true
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}
