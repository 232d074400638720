// Package vault resolves wiki-style links against a directory of markdown
// notes. The vault is read once at startup; the pipeline never writes to
// it.
package vault

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// noteFrontmatter is the YAML header a vault note may carry
type noteFrontmatter struct {
	UUID         string   `yaml:"uuid"`
	Aliases      []string `yaml:"aliases"`
	SummaryShort string   `yaml:"summary_short"`
}

// Resolver implements ports.LinkResolver over a note directory. Lookups
// are case-insensitive over canonical names and aliases.
type Resolver struct {
	index  map[string]*ports.LinkedNote
	logger *zap.Logger
}

// NewResolver walks the vault directory and indexes every markdown note by
// its filename and frontmatter aliases.
func NewResolver(dir string, logger *zap.Logger) (*Resolver, error) {
	r := &Resolver{index: make(map[string]*ports.LinkedNote), logger: logger}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		note, err := loadNote(path)
		if err != nil {
			logger.Warn("skipping unreadable vault note", zap.String("path", path), zap.Error(err))
			return nil
		}
		r.add(note)
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewUnavailable("walk vault directory", err)
	}
	logger.Info("vault indexed", zap.Int("notes", len(r.index)))
	return r, nil
}

var _ ports.LinkResolver = (*Resolver)(nil)

func loadNote(path string) (*ports.LinkedNote, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	note := &ports.LinkedNote{
		EntityName:    name,
		CanonicalName: name,
	}

	fm := parseFrontmatter(string(raw))
	if fm == nil {
		return note, nil
	}
	note.Aliases = fm.Aliases
	note.ShortSummary = fm.SummaryShort
	if fm.UUID != "" {
		if id, err := valueobjects.ParseEntityID(fm.UUID); err == nil {
			note.EntityID = &id
		}
	}
	return note, nil
}

func parseFrontmatter(raw string) *noteFrontmatter {
	if !strings.HasPrefix(raw, "---\n") {
		return nil
	}
	rest := raw[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil
	}
	var fm noteFrontmatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return nil
	}
	return &fm
}

func (r *Resolver) add(note *ports.LinkedNote) {
	r.index[strings.ToLower(note.CanonicalName)] = note
	for _, alias := range note.Aliases {
		key := strings.ToLower(alias)
		if _, taken := r.index[key]; !taken {
			r.index[key] = note
		}
	}
}

// ResolveLink looks a link text up in the vault. Unknown links resolve to
// a bare note carrying just the name, so the extraction engine treats them
// as new entities rather than failing the journal.
func (r *Resolver) ResolveLink(_ context.Context, linkText string) (*ports.LinkedNote, error) {
	if linkText == "" {
		return nil, pkgerrors.NewValidation("link text cannot be empty")
	}
	if note, ok := r.index[strings.ToLower(linkText)]; ok {
		resolved := *note
		resolved.EntityName = linkText
		return &resolved, nil
	}
	return &ports.LinkedNote{EntityName: linkText, CanonicalName: linkText}, nil
}
