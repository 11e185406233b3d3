// Package metrics provides the observability hooks of the pipeline engine.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless a real implementation is
// injected:
//
//	reg := prometheus.NewRegistry()
//	app := engine.New(meta, engine.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The CLI exports a registry once a run finishes with WriteTextfile, in the
// node_exporter textfile format.
package metrics
