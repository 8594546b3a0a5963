package replay

import (
	"fmt"
	"strings"
	"sync"

	"github.com/penwyp/go-mine-replay/internal/util"
	"github.com/samber/lo"
)

const (
	versionSeparator = "="
	fieldSeparator   = "+"
	fieldCount       = 4
)

// Parser decodes the fields of one or more replay format versions.
type Parser interface {
	// SupportedVersions returns the version tags this parser accepts
	SupportedVersions() []string

	// ParseMetadata decodes the board size field
	ParseMetadata(field string) (Metadata, error)

	// ParseMines decodes the mine layout field
	ParseMines(field string, meta Metadata) ([]Coordinate, error)

	// ParseOpens decodes the open event field
	ParseOpens(field string, meta Metadata) ([]OpenEvent, error)

	// ParseFlags decodes the flag event field
	ParseFlags(field string, meta Metadata) ([]FlagEvent, error)
}

// Registry dispatches replay strings to the parser declaring their version.
type Registry struct {
	mu      sync.RWMutex
	parsers []Parser
}

// NewRegistry creates a registry holding the given parsers.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{}
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in format version.
func DefaultRegistry() *Registry {
	return NewRegistry(NewV1Parser())
}

// Register adds a parser. A parser registered later wins for any version
// tag it shares with an earlier one.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers = append([]Parser{p}, r.parsers...)
	util.LogDebugf("Registry: registered replay parser for versions %v", p.SupportedVersions())
}

// Lookup returns the parser accepting version.
func (r *Registry) Lookup(version string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := lo.Find(r.parsers, func(p Parser) bool {
		return lo.Contains(p.SupportedVersions(), version)
	})
	if !ok {
		return nil, &UnsupportedVersionError{Version: version}
	}
	return p, nil
}

// Versions lists every version tag known to the registry.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Uniq(lo.FlatMap(r.parsers, func(p Parser, _ int) []string {
		return p.SupportedVersions()
	}))
}

// Parse decodes a complete replay string of the form
// <version>=<metadata>+<mines>+<opens>+<flags>.
func (r *Registry) Parse(text string) (*Replay, error) {
	text = strings.TrimSpace(text)

	version, body, ok := strings.Cut(text, versionSeparator)
	if !ok {
		return nil, malformed("replay", "", "missing %q after the version tag", versionSeparator)
	}

	parser, err := r.Lookup(version)
	if err != nil {
		return nil, err
	}

	fields := strings.Split(body, fieldSeparator)
	if len(fields) != fieldCount {
		return nil, malformed("replay", "", "expected %d %q-separated fields, got %d", fieldCount, fieldSeparator, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	meta, err := parser.ParseMetadata(fields[0])
	if err != nil {
		return nil, err
	}
	mines, err := parser.ParseMines(fields[1], meta)
	if err != nil {
		return nil, err
	}
	opens, err := parser.ParseOpens(fields[2], meta)
	if err != nil {
		return nil, err
	}
	flags, err := parser.ParseFlags(fields[3], meta)
	if err != nil {
		return nil, err
	}

	util.LogDebug(fmt.Sprintf("Parsed replay version %s: %dx%d board, %d mines, %d opens, %d flags",
		version, meta.Width, meta.Height, len(mines), len(opens), len(flags)))

	return &Replay{
		Version:  version,
		Metadata: meta,
		Mines:    mines,
		Opens:    opens,
		Flags:    flags,
	}, nil
}
