// Package metrics provides run and phase metrics for recipebuilder.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder registers real collectors
// on a private registry. Because a recipe run is a short-lived batch job,
// metrics are not scraped over HTTP: after a run the registry is written as a
// node-exporter textfile (see WriteTextfile), which the textfile collector
// picks up.
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	runner := pipeline.New(...).WithRecorder(rec)
//	...
//	_ = metrics.WriteTextfile(path, reg)
package metrics
