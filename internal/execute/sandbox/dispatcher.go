// Package sandbox routes execution requests to the runner of their language.
package sandbox

import (
	"context"
	"sort"
	"strings"

	"codetrainer/internal/execute/sandbox/profile"
	"codetrainer/internal/execute/sandbox/result"
	"codetrainer/internal/execute/sandbox/runner"
	appErr "codetrainer/pkg/errors"
)

// Dispatcher maps normalized language tags to runners.
type Dispatcher struct {
	runners map[profile.Language]runner.LanguageRunner
	aliases map[string]profile.Language
	order   []profile.Language
}

// NewDispatcher registers runners by language ID and aliases.
func NewDispatcher(runners ...runner.LanguageRunner) (*Dispatcher, error) {
	d := &Dispatcher{
		runners: make(map[profile.Language]runner.LanguageRunner, len(runners)),
		aliases: make(map[string]profile.Language),
	}
	for _, r := range runners {
		lang := r.Language()
		id := profile.Language(normalize(string(lang.ID)))
		if _, exists := d.runners[id]; exists {
			return nil, appErr.ValidationError("language.id", "duplicate "+string(id))
		}
		d.runners[id] = r
		d.order = append(d.order, id)
		d.aliases[string(id)] = id
		for _, alias := range lang.Aliases {
			d.aliases[normalize(alias)] = id
		}
	}
	return d, nil
}

// ParseLanguage resolves a raw tag, case-insensitively, to a registered language.
// Surrounding whitespace is not trimmed.
func (d *Dispatcher) ParseLanguage(tag string) (profile.Language, bool) {
	id, ok := d.aliases[normalize(tag)]
	return id, ok
}

// Dispatch runs code with the runner for languageID. Unknown tags yield the
// Unsupported outcome without starting any process.
func (d *Dispatcher) Dispatch(ctx context.Context, languageID string, req runner.Request) (result.Outcome, error) {
	id, ok := d.ParseLanguage(languageID)
	if !ok {
		return result.UnsupportedOutcome(), nil
	}
	return d.runners[id].Run(ctx, req)
}

// Languages lists the registered language specs sorted by ID.
func (d *Dispatcher) Languages() []profile.LanguageSpec {
	ids := make([]profile.Language, len(d.order))
	copy(ids, d.order)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]profile.LanguageSpec, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.runners[id].Language())
	}
	return out
}

func normalize(tag string) string {
	return strings.ToLower(tag)
}
