package fulpack

import (
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// patternFilter applies include/exclude glob filters to entry paths before
// the codec sees them. Patterns use gitignore syntax ("*.log", "build/",
// "docs/**"), matched against forward-slash relative paths.
type patternFilter struct {
	include *ignore.GitIgnore // nil means include everything
	exclude *ignore.GitIgnore // nil means exclude nothing
}

// newPatternFilter compiles the pattern lists. Empty lists compile to nil
// matchers so the filter is a no-op.
func newPatternFilter(includePatterns, excludePatterns []string) *patternFilter {
	pf := &patternFilter{}
	if len(includePatterns) > 0 {
		pf.include = ignore.CompileIgnoreLines(includePatterns...)
	}
	if len(excludePatterns) > 0 {
		pf.exclude = ignore.CompileIgnoreLines(excludePatterns...)
	}
	return pf
}

// Match reports whether the entry path passes the filters. Directories
// always pass the include filter so their children can still match; the
// exclude filter prunes them.
func (pf *patternFilter) Match(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)

	if pf.exclude != nil && pf.exclude.MatchesPath(relPath) {
		return false
	}
	if pf.include != nil && !isDir && !pf.include.MatchesPath(relPath) {
		return false
	}
	return true
}
