// Package engine owns the processor and pipe registries and runs pipes.
//
// A pipe is an ordered list of processor specs. Invoking a pipe chains the
// lazy stream returned by each processor into the next one. Nothing runs
// until the caller ranges over the returned stream; from then on every step is
// prepared in order (references resolved against current metadata, the step
// unpacked, the processor looked up and called) and items are pulled through
// the chain on demand.
//
// Processor specs support one level of wrapping sugar:
//
//	steps:
//	  - name: commonmark
//	    args: {infer_title: true}
//	    when: {condition: ['hasSuffix .item.source ".md"']}
//
// is the same as calling the "when" wrapper with the commonmark spec as its
// first positional argument.
package engine
