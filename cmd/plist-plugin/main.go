package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/twinfer/plistreader/internal/render"
	"github.com/twinfer/plistreader/pkg/manifest"
)

const (
	formatStructured = "structured"

	// filenameMeta is set on every emitted message; it is empty for raw documents
	filenameMeta = "plist_filename"
)

// PlistProcessor is a Benthos processor that decodes binary property lists,
// either a single document or every *.plist entry of a zip/ipa archive.
type PlistProcessor struct {
	format   render.Format
	pipeline *manifest.Pipeline
	logger   *service.Logger

	mDecoded *service.MetricCounter
	mFailed  *service.MetricCounter
	mErrors  *service.MetricCounter
}

// PlistConfig contains configuration parameters for the plist processor.
type PlistConfig struct {
	Format      string `json:"format" yaml:"format"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
	Filter      string `json:"filter" yaml:"filter"`
	Query       string `json:"query" yaml:"query"`
}

func init() {
	err := service.RegisterProcessor(
		"plist",
		plistProcessorConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.Processor, error) {
			return newPlistProcessorFromConfig(conf, mgr)
		},
	)
	if err != nil {
		panic(err)
	}
}

func main() {
	service.RunCLI(context.Background())
}

// outputFormat maps the format field onto a render format. Structured
// output keeps the decoded tree.
func (c PlistConfig) outputFormat() (render.Format, error) {
	if c.Format == formatStructured {
		return render.FormatRaw, nil
	}
	return render.ParseFormat(c.Format)
}

// options converts the config into pipeline options
func (c PlistConfig) options(format render.Format) []manifest.Option {
	return []manifest.Option{
		manifest.WithFormat(format),
		manifest.WithConcurrency(c.Concurrency),
		manifest.WithEntryFilter(c.Filter),
		manifest.WithQuery(c.Query),
	}
}

// plistProcessorConfig returns a config spec for a plist processor.
func plistProcessorConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Decodes binary property lists, standalone or inside zip/ipa archives.").
		Description("Each message is either a single bplist00 document or a zip/ipa archive. " +
			"A document becomes one message, an archive becomes one message per *.plist entry with the entry path in the `" + filenameMeta + "` metadata key. " +
			"Entries that fail to decode are emitted with an error flag so they can be handled with a catch processor.").
		Field(service.NewStringEnumField("format", formatStructured,
			string(render.FormatJSON), string(render.FormatYAML), string(render.FormatXML), string(render.FormatCBOR)).
			Description("Emit documents as structured data, as JSON, YAML or XML property list text, or as CBOR.").
			Default(formatStructured)).
		Field(service.NewIntField("concurrency").
			Description("Maximum archive entries decoded at once. Zero leaves it unbounded.").
			Default(0)).
		Field(service.NewStringField("filter").
			Description("CEL expression over entry.path, entry.name, entry.dir and entry.size selecting archive entries.").
			Example(`entry.name == "Info.plist"`).
			Default("")).
		Field(service.NewStringField("query").
			Description("CEL expression over doc and filename applied to each decoded document.").
			Example(`doc.CFBundleIdentifier`).
			Default("")).
		Version("0.1.0")
}

// newPlistProcessorFromConfig creates a new PlistProcessor from a parsed config.
func newPlistProcessorFromConfig(conf *service.ParsedConfig, mgr *service.Resources) (*PlistProcessor, error) {
	format, err := conf.FieldString("format")
	if err != nil {
		return nil, err
	}
	concurrency, err := conf.FieldInt("concurrency")
	if err != nil {
		return nil, err
	}
	filter, err := conf.FieldString("filter")
	if err != nil {
		return nil, err
	}
	query, err := conf.FieldString("query")
	if err != nil {
		return nil, err
	}

	config := PlistConfig{
		Format:      format,
		Concurrency: concurrency,
		Filter:      filter,
		Query:       query,
	}
	outFormat, err := config.outputFormat()
	if err != nil {
		return nil, err
	}
	pipeline, err := manifest.New(config.options(outFormat)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create plist pipeline: %w", err)
	}

	metrics := mgr.Metrics()
	return &PlistProcessor{
		format:   outFormat,
		pipeline: pipeline,
		logger:   mgr.Logger(),
		mDecoded: metrics.NewCounter("plist_decoded_documents"),
		mFailed:  metrics.NewCounter("plist_failed_documents"),
		mErrors:  metrics.NewCounter("plist_processing_errors"),
	}, nil
}

// Process decodes the message into one message per document.
func (p *PlistProcessor) Process(ctx context.Context, msg *service.Message) (service.MessageBatch, error) {
	data, err := msg.AsBytes()
	if err != nil {
		p.logger.Errorf("Failed to get binary data from message: %v", err)
		p.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("failed to get binary data from message: %w", err))
		return service.MessageBatch{msg}, nil
	}
	if len(data) == 0 {
		p.logger.Warn("Empty binary data provided")
		p.mErrors.Incr(1)
		msg.SetError(errors.New("empty binary data provided"))
		return service.MessageBatch{msg}, nil
	}

	var batch service.MessageBatch
	listener := manifest.ListenerFuncs{
		Document: func(content any, filename string) {
			out, err := p.documentMessage(msg, content, filename)
			if err != nil {
				p.mFailed.Incr(1)
				out.SetError(err)
			} else {
				p.mDecoded.Incr(1)
			}
			batch = append(batch, out)
		},
		Error: func(err error, filename string) {
			if filename == "" {
				return
			}
			p.logger.Debugf("Failed to decode %s: %v", filename, err)
			p.mFailed.Incr(1)
			out := p.newMessage(msg, filename)
			out.SetError(err)
			batch = append(batch, out)
		},
	}

	if err := p.pipeline.Run(ctx, manifest.Input{Data: data}, listener); err != nil {
		p.logger.Errorf("Failed to decode %d bytes: %v", len(data), err)
		p.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("failed to decode property list: %w", err))
		return service.MessageBatch{msg}, nil
	}

	p.logger.Debugf("Decoded %d document(s) from %d bytes", len(batch), len(data))
	return batch, nil
}

// newMessage creates an empty message carrying the metadata of the original
func (p *PlistProcessor) newMessage(orig *service.Message, filename string) *service.Message {
	newMsg := service.NewMessage(nil)
	orig.MetaWalk(func(key, value string) error {
		newMsg.MetaSet(key, value)
		return nil
	})
	newMsg.MetaSet(filenameMeta, filename)
	return newMsg
}

func (p *PlistProcessor) documentMessage(orig *service.Message, content any, filename string) (*service.Message, error) {
	newMsg := p.newMessage(orig, filename)
	switch {
	case p.format.Textual():
		text, ok := content.(string)
		if !ok {
			return newMsg, fmt.Errorf("expected %s text for %q, got %T", p.format, filename, content)
		}
		newMsg.SetBytes([]byte(text))
		return newMsg, nil
	case p.format == render.FormatCBOR:
		data, ok := content.([]byte)
		if !ok {
			return newMsg, fmt.Errorf("expected CBOR bytes for %q, got %T", filename, content)
		}
		newMsg.SetBytes(data)
		return newMsg, nil
	}
	structured, err := render.Normalize(content)
	if err != nil {
		return newMsg, fmt.Errorf("failed to convert %q to structured data: %w", filename, err)
	}
	newMsg.SetStructured(structured)
	return newMsg, nil
}

// Close the processor resources
func (p *PlistProcessor) Close(ctx context.Context) error {
	return nil
}
