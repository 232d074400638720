// Package services implements the extraction engine: link resolution, span
// hydration, and the LLM extraction passes that feed the curation queue.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
)

// Narrator is the default journal author; every link index includes them.
const Narrator = "Alex Elgier"

// wikiLinkRegex matches [[Name]] and [[Name|Alias]]
var wikiLinkRegex = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)

// LinkIndex maps the entity names mentioned in a journal (via wiki links)
// to their resolved vault notes. Lookup keys are case-insensitive over
// canonical names, aliases, and the link texts that resolved to them.
type LinkIndex struct {
	notes  []*ports.LinkedNote
	byName map[string]*ports.LinkedNote
}

// ParseWikiLinks returns the unique link targets in order of first
// appearance. For [[Name|Alias]] the target is Name.
func ParseWikiLinks(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range wikiLinkRegex.FindAllStringSubmatch(text, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		key := strings.ToLower(target)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, target)
	}
	return out
}

// BuildLinkIndex resolves every unique wiki link in the journal text, one
// resolver call per link, and always includes the narrator.
func BuildLinkIndex(ctx context.Context, resolver ports.LinkResolver, text string, logger *zap.Logger) (*LinkIndex, error) {
	idx := &LinkIndex{byName: make(map[string]*ports.LinkedNote)}

	links := ParseWikiLinks(text)
	if !containsFold(links, Narrator) {
		links = append(links, Narrator)
	}

	for _, link := range links {
		note, err := resolver.ResolveLink(ctx, link)
		if err != nil {
			logger.Warn("link resolution failed", zap.String("link", link), zap.Error(err))
			note = &ports.LinkedNote{EntityName: link, CanonicalName: link}
		}
		idx.add(link, note)
	}
	return idx, nil
}

func containsFold(list []string, target string) bool {
	for _, s := range list {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}

func (idx *LinkIndex) add(linkText string, note *ports.LinkedNote) {
	idx.notes = append(idx.notes, note)
	for _, key := range append([]string{linkText, note.CanonicalName}, note.Aliases...) {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, taken := idx.byName[key]; !taken {
			idx.byName[key] = note
		}
	}
}

// Lookup finds a note by canonical name, alias, or original link text
func (idx *LinkIndex) Lookup(name string) (*ports.LinkedNote, bool) {
	note, ok := idx.byName[strings.ToLower(strings.TrimSpace(name))]
	return note, ok
}

// CanonicalName maps any known alias to its canonical form; unknown names
// pass through trimmed.
func (idx *LinkIndex) CanonicalName(name string) string {
	if note, ok := idx.Lookup(name); ok {
		return note.CanonicalName
	}
	return strings.TrimSpace(name)
}

// Notes returns the resolved notes in resolution order
func (idx *LinkIndex) Notes() []*ports.LinkedNote {
	return idx.notes
}

// Glossary formats the known entities and their short summaries for an
// extraction prompt. Notes without a summary are listed by name alone.
func (idx *LinkIndex) Glossary() string {
	if len(idx.notes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Known entities:\n")
	for _, note := range idx.notes {
		if note.ShortSummary != "" {
			fmt.Fprintf(&b, "- %s: %s\n", note.CanonicalName, note.ShortSummary)
		} else {
			fmt.Fprintf(&b, "- %s\n", note.CanonicalName)
		}
	}
	return b.String()
}
