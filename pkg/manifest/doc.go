// Package manifest extracts and decodes binary property lists from raw input
// or from .zip/.ipa containers.
//
// # Overview
//
// A run takes one of two shapes, selected from the input:
//
//   - Raw document: the bytes (or the file at a path) are decoded once and a
//     single OnDocument event is fired, or a fatal OnError.
//   - Container: the archive is scanned for "*.plist" file entries, each entry
//     is buffered in full and decoded concurrently, and a join counter seeded
//     with the number of discovered entries decides when the run is complete.
//
// # Quick Start
//
//	results, err := manifest.ReadFile(ctx, "MyApp.ipa", manifest.WithFormat(manifest.FormatJSON))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range results {
//	    fmt.Println(r.Filename, r.Content)
//	}
//
// # Events
//
// For finer control create a Pipeline and pass a Listener:
//
//	p, err := manifest.New(manifest.WithConcurrency(4))
//	err = p.Run(ctx, manifest.Input{Path: "MyApp.ipa"}, manifest.ListenerFuncs{
//	    Document: func(content any, filename string) { ... },
//	    Error:    func(err error, filename string) { ... },
//	    Complete: func(results []manifest.Result) { ... },
//	})
//
// Every run ends with exactly one terminal outcome: a fatal OnError
// (ErrMissingFile, ErrNoEntries, cancellation, unreadable container) or, for
// containers, one OnComplete once every discovered document resolved. A
// document that fails to decode is reported with a *DecodeError and still
// counts toward completion, so OnComplete fires even when every document
// failed.
//
// Results are ordered by decode completion, not by position in the archive.
//
// # Configuration Options
//
//   - WithLogger(*slog.Logger): Custom logging
//   - WithFormat(Format): raw tree, json/yaml/xml text, or cbor bytes
//   - WithConcurrency(int): Bound on in-flight decodes (default unbounded)
//   - WithChunkSize(int): Read size for entry payloads
//   - WithEntryFilter(string): CEL expression narrowing entries
//   - WithQuery(string): CEL expression projecting documents
//   - WithDecoder(Decoder): Replace the binary property list decoder
package manifest
