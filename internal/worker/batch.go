package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/seoforge/internal/model"
)

// Generator produces one article
type Generator interface {
	Generate(ctx context.Context, req model.GenerationRequest) (*model.GenerationResult, error)
}

// GenerateResult is the outcome of one batch entry
type GenerateResult struct {
	Index  int
	Topic  string
	Result *model.GenerationResult
	Error  error
}

// GetError returns the error from the generation
func (r *GenerateResult) GetError() error {
	return r.Error
}

// BatchGenerator runs many generations concurrently. Every job goes through
// the same Generator, so breaker state and the search cache are shared.
type BatchGenerator struct {
	generator   Generator
	concurrency int
}

// NewBatchGenerator creates a new batch generator
func NewBatchGenerator(generator Generator, concurrency int) *BatchGenerator {
	return &BatchGenerator{
		generator:   generator,
		concurrency: concurrency,
	}
}

// Run generates every request and returns one result per request, in input
// order. Requests cut off by cancellation carry the context error.
func (b *BatchGenerator) Run(ctx context.Context, requests []model.GenerationRequest) []*GenerateResult {
	if len(requests) == 0 {
		return []*GenerateResult{}
	}

	pool := NewPool[*GenerateResult](ctx, b.concurrency)
	pool.Start()
	for i, req := range requests {
		pool.Submit(func(ctx context.Context) *GenerateResult {
			result, err := b.generator.Generate(ctx, req)
			return &GenerateResult{Index: i, Topic: req.Topic, Result: result, Error: err}
		})
	}

	results := pool.Wait()
	out := make([]*GenerateResult, len(requests))
	for i, req := range requests {
		if i < len(results) && results[i] != nil {
			out[i] = results[i]
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &GenerateResult{Index: i, Topic: req.Topic, Error: fmt.Errorf("not started: %w", err)}
	}
	return out
}

// RunTopics builds one request per topic from a template request
func (b *BatchGenerator) RunTopics(ctx context.Context, template model.GenerationRequest, topics []string) []*GenerateResult {
	requests := make([]model.GenerationRequest, len(topics))
	for i, topic := range topics {
		req := template
		req.Topic = topic
		requests[i] = req
	}
	return b.Run(ctx, requests)
}

// ReadTopicsFromFile reads topics from a file (one per line, # comments)
func ReadTopicsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var topics []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(line)
		if !seen[key] {
			seen[key] = true
			topics = append(topics, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return topics, nil
}
