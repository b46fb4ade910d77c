package scan

import "github.com/sahilm/fuzzy"

// Hit is a file ranked by how well its path matched a query.
type Hit struct {
	File
	Score   int
	Matched []int // Byte offsets in File.Path that matched the query
}

type fileSource []File

func (s fileSource) String(i int) string { return s[i].Path }
func (s fileSource) Len() int            { return len(s) }

// Search ranks files whose relative path fuzzily contains query, best first.
// An empty query matches nothing.
func Search(files []File, query string, limit int) []Hit {
	if query == "" {
		return nil
	}
	matches := fuzzy.FindFrom(query, fileSource(files))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	hits := make([]Hit, len(matches))
	for i, m := range matches {
		hits[i] = Hit{File: files[m.Index], Score: m.Score, Matched: m.MatchedIndexes}
	}
	return hits
}
