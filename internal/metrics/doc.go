// Package metrics records build outcomes and retry activity.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and costs nothing; PrometheusRecorder registers counters and a
// histogram on a caller-supplied registry. A CLI run is short-lived, so the
// registry is exported once at the end through WriteTextfile in the
// node_exporter textfile format rather than served over HTTP.
package metrics
