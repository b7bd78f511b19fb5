// Package cli formats posts for the inkwell command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/inkwell/internal/models"
	"github.com/hyperjump/inkwell/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// descriptionWidth caps meta descriptions in text output.
const descriptionWidth = 200

// ParseOutputFormat maps a --output value to a format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// SearchOutput is the JSON shape of a search.
type SearchOutput struct {
	Query string        `json:"query"`
	Total int           `json:"total"`
	Posts []models.Post `json:"posts"`
}

// PostOutput is the JSON shape of a single post with its related posts.
type PostOutput struct {
	Post    *models.Post  `json:"post"`
	Related []models.Post `json:"related"`
}

// WriteSearchResults writes the posts matching query to w in the given format.
func WriteSearchResults(w io.Writer, query string, posts []models.Post, format OutputFormat) error {
	if posts == nil {
		posts = []models.Post{}
	}
	if format == OutputJSON {
		return writeJSON(w, SearchOutput{Query: query, Total: len(posts), Posts: posts})
	}
	noun := "posts"
	if len(posts) == 1 {
		noun = "post"
	}
	fmt.Fprintf(w, "\nFound %d %s for %q\n\n", len(posts), noun, query)
	for i := range posts {
		writeOnePost(w, &posts[i])
	}
	return nil
}

// WritePost writes a post and its related posts to w in the given format.
func WritePost(w io.Writer, post *models.Post, related []models.Post, format OutputFormat) error {
	if related == nil {
		related = []models.Post{}
	}
	if format == OutputJSON {
		return writeJSON(w, PostOutput{Post: post, Related: related})
	}
	writeOnePost(w, post)
	if len(related) > 0 {
		fmt.Fprintln(w, "--- Related ---")
		for i := range related {
			fmt.Fprintf(w, "  %s  %s\n", related[i].Path, related[i].Title)
		}
	}
	return nil
}

func writeOnePost(w io.Writer, p *models.Post) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%d] %s\n", p.ID, p.Path)
	if p.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", p.Title)
	}
	if tags := p.Tags.String(); tags != "" {
		fmt.Fprintf(w, "Tags: %s\n", tags)
	}
	if p.MetaDescription != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(p.MetaDescription, descriptionWidth))
	}
	fmt.Fprintln(w)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
