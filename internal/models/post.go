// Package models defines the post index document and its entries.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PostIndex is the root of the content document: {"posts": [...]}.
type PostIndex struct {
	Posts []Post `json:"posts"`
}

// Post is one entry of the content index.
type Post struct {
	ID              int    `json:"id"`
	Path            string `json:"path"`
	Title           string `json:"title"`
	Tags            Tags   `json:"tags"`
	MetaDescription string `json:"meta_description"`
	Related         []int  `json:"related"`
}

// Tags holds a post's tags, which the document stores either as one string
// or as a list of strings. The original form decides how a query matches.
type Tags struct {
	Text   string
	List   []string
	IsList bool
}

// TagText returns tags stored as a single string.
func TagText(s string) Tags {
	return Tags{Text: s}
}

// TagList returns tags stored as a list.
func TagList(tags ...string) Tags {
	return Tags{List: tags, IsList: true}
}

// Contains reports whether q matches the tags: substring of the raw string
// form, or exact equality with one element of the list form.
func (t Tags) Contains(q string) bool {
	if !t.IsList {
		return strings.Contains(t.Text, q)
	}
	for _, tag := range t.List {
		if tag == q {
			return true
		}
	}
	return false
}

// Values returns the tags as a slice regardless of the stored form.
func (t Tags) Values() []string {
	if t.IsList {
		return t.List
	}
	if t.Text == "" {
		return nil
	}
	return []string{t.Text}
}

// String joins list tags with ", ".
func (t Tags) String() string {
	if t.IsList {
		return strings.Join(t.List, ", ")
	}
	return t.Text
}

// UnmarshalJSON accepts a string, a list, or null. List elements that are
// not strings keep their JSON text (2023 becomes "2023"); null elements are
// dropped.
func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Tags{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		list := make([]string, 0, len(raw))
		for _, elem := range raw {
			elem = bytes.TrimSpace(elem)
			if bytes.Equal(elem, []byte("null")) {
				continue
			}
			var s string
			if err := json.Unmarshal(elem, &s); err != nil {
				s = string(elem)
			}
			list = append(list, s)
		}
		*t = TagList(list...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tags must be a string or a list of strings: %w", err)
	}
	*t = TagText(s)
	return nil
}

// MarshalJSON writes tags back in the form they were read.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t.IsList {
		if t.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(t.List)
	}
	return json.Marshal(t.Text)
}
