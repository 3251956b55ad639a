/*
Tracing is a package that wraps go.opentelemetry.io/otel/trace for setting and retrieving tracers in a context.Context

This package aids in tracing instrumentation by using context for tracing instrumentation instead of using package global variables.
*/
package tracing
