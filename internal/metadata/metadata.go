// Package metadata reads and writes TagSpaces sidecar files.
//
// File format:
//
//	{
//	  "id": "optional",
//	  "tags": [{"title": "bracket", "type": "sidecar", "color": "#ffcc24"}],
//	  "description": "optional"
//	}
//
// Keys this package does not model, such as appName or lastUpdated at the
// top level or style on a tag, are kept and written back unchanged.
package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/Faultbox/stlthumb/internal/storage"
)

const (
	// SidecarTagType marks tags created by this tool.
	SidecarTagType = "sidecar"
	// MaxSuggestions caps Suggest results.
	MaxSuggestions = 10

	DefaultTagColor     = "#ffcc24"
	DefaultTagTextColor = "#ffffff"
)

// ErrInvalid is returned for sidecar JSON that does not match the format.
var ErrInvalid = errors.New("invalid metadata")

// Tag is one label on a file.
type Tag struct {
	Title     string `json:"title"`
	Type      string `json:"type,omitempty"`
	Color     string `json:"color,omitempty"`
	TextColor string `json:"textcolor,omitempty"`

	extra map[string]json.RawMessage
}

type tagFields Tag

var tagKeys = []string{"title", "type", "color", "textcolor"}

func (t *Tag) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var fields tagFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := unknownKeys(data, tagKeys)
	if err != nil {
		return err
	}
	*t = Tag(fields)
	t.extra = extra
	return nil
}

func (t Tag) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(tagFields(t), t.extra)
}

// DisplayColor returns the tag colour or the default.
func (t Tag) DisplayColor() string {
	if t.Color != "" {
		return t.Color
	}
	return DefaultTagColor
}

// DisplayTextColor returns the tag text colour or the default.
func (t Tag) DisplayTextColor() string {
	if t.TextColor != "" {
		return t.TextColor
	}
	return DefaultTagTextColor
}

// Metadata is the content of one sidecar file.
type Metadata struct {
	ID          string `json:"id,omitempty"`
	Tags        []Tag  `json:"tags"`
	Description string `json:"description,omitempty"`

	extra map[string]json.RawMessage
}

type metadataFields Metadata

var metadataKeys = []string{"id", "tags", "description"}

func (md *Metadata) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var fields metadataFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := unknownKeys(data, metadataKeys)
	if err != nil {
		return err
	}
	*md = Metadata(fields)
	md.extra = extra
	return nil
}

func (md Metadata) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(metadataFields(md), md.extra)
}

// unknownKeys returns the members of the JSON object data not named in known,
// or nil if there are none.
func unknownKeys(data []byte, known []string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// marshalWithExtra encodes v, an object, followed by the extra members in
// key order.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	b.Write(data[:len(data)-1])
	for _, k := range keys {
		if b.Len() > 1 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(extra[k])
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Parse decodes and validates sidecar JSON. Every present field must have
// the right JSON type and every tag needs a non-blank title.
func Parse(data []byte) (*Metadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalid)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if md.Tags == nil {
		md.Tags = []Tag{}
	}
	return &md, nil
}

func validate(raw map[string]json.RawMessage) error {
	for _, key := range []string{"id", "description"} {
		if v, ok := raw[key]; ok && !isString(v) {
			return fmt.Errorf("%w: %s must be a string", ErrInvalid, key)
		}
	}

	tags, ok := raw["tags"]
	if !ok {
		return nil
	}
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(tags, &list); err != nil {
		return fmt.Errorf("%w: tags must be an array of objects", ErrInvalid)
	}
	for i, tag := range list {
		if tag == nil {
			return fmt.Errorf("%w: tag %d is not an object", ErrInvalid, i)
		}
		var title string
		if err := json.Unmarshal(tag["title"], &title); err != nil || strings.TrimSpace(title) == "" {
			return fmt.Errorf("%w: tag %d needs a title", ErrInvalid, i)
		}
		for _, key := range []string{"type", "color", "textcolor"} {
			if v, ok := tag[key]; ok && !isString(v) {
				return fmt.Errorf("%w: tag %d %s must be a string", ErrInvalid, i, key)
			}
		}
	}
	return nil
}

func isString(v json.RawMessage) bool {
	var s string
	return json.Unmarshal(v, &s) == nil && bytes.HasPrefix(bytes.TrimSpace(v), []byte(`"`))
}

// Load reads the sidecar at path. A missing file yields (nil, nil).
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	md, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return md, nil
}

// Marshal encodes md with two-space indentation.
func Marshal(md *Metadata) ([]byte, error) {
	return json.MarshalIndent(md, "", "  ")
}

// Save writes md to path atomically.
func Save(path string, md *Metadata) error {
	data, err := Marshal(md)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// HasTag reports whether md carries a tag with exactly this title.
func (md *Metadata) HasTag(title string) bool {
	for _, t := range md.Tags {
		if t.Title == title {
			return true
		}
	}
	return false
}

// AddTags appends a sidecar tag for each title not already present.
// Titles are trimmed; blank ones are ignored. Returns the number added.
func (md *Metadata) AddTags(titles ...string) int {
	added := 0
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" || md.HasTag(title) {
			continue
		}
		md.Tags = append(md.Tags, Tag{Title: title, Type: SidecarTagType})
		added++
	}
	return added
}

// RemoveTags drops every tag whose title is listed. Returns the number removed.
func (md *Metadata) RemoveTags(titles ...string) int {
	drop := make(map[string]bool, len(titles))
	for _, t := range titles {
		drop[t] = true
	}
	kept := md.Tags[:0]
	for _, t := range md.Tags {
		if !drop[t.Title] {
			kept = append(kept, t)
		}
	}
	removed := len(md.Tags) - len(kept)
	md.Tags = kept
	return removed
}

// UniqueTags collects tags across files, first occurrence per title wins,
// sorted by title. Nil entries are skipped.
func UniqueTags(all []*Metadata) []Tag {
	seen := make(map[string]bool)
	var out []Tag
	for _, md := range all {
		if md == nil {
			continue
		}
		for _, t := range md.Tags {
			if seen[t.Title] {
				continue
			}
			seen[t.Title] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Suggest returns up to MaxSuggestions known tag titles containing partial,
// ignoring case.
func Suggest(all []*Metadata, partial string) []string {
	if strings.TrimSpace(partial) == "" {
		return nil
	}
	needle := strings.ToLower(partial)

	var out []string
	for _, t := range UniqueTags(all) {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			out = append(out, t.Title)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}

// Change summarises a pending bulk tag edit.
type Change struct {
	Files  int      // Files whose tags would change
	Add    []string // Titles to add
	Remove []string // Titles to remove
}

// Preview reports how many files an add/remove would touch without
// modifying anything.
func Preview(all []*Metadata, add, remove []string) Change {
	c := Change{Add: add, Remove: remove}
	for _, md := range all {
		probe := &Metadata{}
		if md != nil {
			probe.Tags = append([]Tag(nil), md.Tags...)
		}
		if probe.RemoveTags(remove...) > 0 || probe.AddTags(add...) > 0 {
			c.Files++
		}
	}
	return c
}
