// Package parser reads and decodes replay files concurrently.
package parser

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-mine-replay/internal/core/replay"
	"github.com/penwyp/go-mine-replay/internal/util"
)

// Parser decodes replay files, remembering results by content fingerprint.
type Parser struct {
	concurrency int
	registry    *replay.Registry
	mu          sync.Mutex
	cache       map[string]*replay.Replay
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File   string
	Replay *replay.Replay
	Error  error
}

// NewParser creates a Parser using the default replay registry.
func NewParser(concurrency int) *Parser {
	return NewParserWithRegistry(concurrency, replay.DefaultRegistry())
}

// NewParserWithRegistry creates a Parser that decodes with registry.
func NewParserWithRegistry(concurrency int, registry *replay.Registry) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{
		concurrency: concurrency,
		registry:    registry,
		cache:       make(map[string]*replay.Replay),
	}
}

// ParseFile reads and decodes the replay at path. Files with identical
// contents share one decoded Replay, which callers must not modify.
func (p *Parser) ParseFile(path string) (*replay.Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		util.LogDebugf("Failed to read file: %s - %v", path, err)
		return nil, err
	}

	fingerprint := util.Fingerprint(data)
	p.mu.Lock()
	if cached, ok := p.cache[fingerprint]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	r, err := p.registry.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	p.mu.Lock()
	p.cache[fingerprint] = r
	p.mu.Unlock()
	return r, nil
}

// ParseFiles parses files concurrently. The channel yields one result per
// file, in completion order, and is closed when all are done.
func (p *Parser) ParseFiles(files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	util.LogDebugf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency)

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			r, err := p.ParseFile(f)
			if err != nil {
				util.LogDebugf("File parsing failed: %s - %v", f, err)
			}
			results <- ParseResult{File: f, Replay: r, Error: err}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebugf("Concurrent parsing finished, total duration: %v", time.Since(start))
	}()

	return results
}

// ParseAll parses files and returns the results in input order.
func (p *Parser) ParseAll(files []string) []ParseResult {
	index := make(map[string][]int, len(files))
	for i, f := range files {
		index[f] = append(index[f], i)
	}

	ordered := make([]ParseResult, len(files))
	for res := range p.ParseFiles(files) {
		i := index[res.File][0]
		index[res.File] = index[res.File][1:]
		ordered[i] = res
	}
	return ordered
}
