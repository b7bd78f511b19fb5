package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/inkwell/internal/models"
)

// Problem is one finding of Check.
type Problem struct {
	PostID  int    `json:"post_id"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("post %d (%s): %s", p.PostID, p.Path, p.Message)
}

// Check lints an index: duplicate ids and paths, paths that cannot be
// routed, and related ids that resolve to no post. Findings are ordered by
// position in the index.
func Check(idx *models.PostIndex) []Problem {
	var problems []Problem
	ids := make(map[int]int, len(idx.Posts))
	paths := make(map[string]int, len(idx.Posts))
	for i, p := range idx.Posts {
		if first, ok := ids[p.ID]; ok {
			problems = append(problems, Problem{p.ID, p.Path, fmt.Sprintf("duplicate id, first used at position %d", first)})
		} else {
			ids[p.ID] = i
		}
		if first, ok := paths[p.Path]; ok {
			problems = append(problems, Problem{p.ID, p.Path, fmt.Sprintf("duplicate path, first used at position %d; only the first is reachable", first)})
		} else {
			paths[p.Path] = i
		}
		if !strings.HasPrefix(p.Path, "/") {
			problems = append(problems, Problem{p.ID, p.Path, "path must start with /"})
		}
		if strings.TrimSpace(p.Title) == "" {
			problems = append(problems, Problem{p.ID, p.Path, "empty title"})
		}
	}
	for _, p := range idx.Posts {
		var dangling []int
		for _, id := range p.Related {
			if _, ok := ids[id]; !ok {
				dangling = append(dangling, id)
			}
		}
		if len(dangling) > 0 {
			sort.Ints(dangling)
			problems = append(problems, Problem{p.ID, p.Path, fmt.Sprintf("related ids not found: %v", dangling)})
		}
	}
	return problems
}
