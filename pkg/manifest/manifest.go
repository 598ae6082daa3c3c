package manifest

import (
	"context"
	"sync"
)

var (
	defaultPipeline     *Pipeline
	defaultPipelineErr  error
	defaultPipelineOnce sync.Once
)

// getDefaultPipeline returns a singleton pipeline with default options
func getDefaultPipeline() (*Pipeline, error) {
	defaultPipelineOnce.Do(func() {
		defaultPipeline, defaultPipelineErr = New()
	})
	return defaultPipeline, defaultPipelineErr
}

func pipelineFor(opts []Option) (*Pipeline, error) {
	if len(opts) == 0 {
		return getDefaultPipeline()
	}
	return New(opts...)
}

// ReadFile decodes the document at path, or every document inside it when it
// is a .zip/.ipa archive. Per-document failures are joined into the returned
// error alongside the successfully decoded results.
func ReadFile(ctx context.Context, path string, opts ...Option) ([]Result, error) {
	return collect(ctx, Input{Path: path}, opts)
}

// DecodeBytes is ReadFile for input held in memory
func DecodeBytes(ctx context.Context, data []byte, opts ...Option) ([]Result, error) {
	return collect(ctx, Input{Data: data}, opts)
}

func collect(ctx context.Context, in Input, opts []Option) ([]Result, error) {
	p, err := pipelineFor(opts)
	if err != nil {
		return nil, err
	}
	var c Collector
	if err := p.Run(ctx, in, &c); err != nil {
		return nil, err
	}
	if len(c.Completions) == 1 {
		return c.Completions[0], c.Err()
	}
	return c.Documents, c.Err()
}
