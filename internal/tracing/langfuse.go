// Package tracing wires optional Langfuse spans around the LLM calls made
// during ingestion (chunk summarization) and query (rerank judging). It is
// a no-op when Langfuse credentials are absent.
package tracing

import (
	"context"
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"

	"github.com/raggify/raggify-go/internal/version"
)

// Setup initialises the Langfuse callback handler if LANGFUSE_PUBLIC_KEY and
// LANGFUSE_SECRET_KEY are set. Returns a flush function that must be called
// before process exit to ensure all traces are sent. If Langfuse is not
// configured, it returns (nil, nil, false) and tracing is silently disabled.
func Setup() (callbacks.Handler, func(), bool) {
	host := os.Getenv("LANGFUSE_HOST")
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")

	if publicKey == "" || secretKey == "" {
		return nil, nil, false
	}
	if host == "" {
		host = "http://localhost:3000"
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
		Name:      "raggify",
		Release:   version.Version,
		Tags:      []string{"raggify", "retrieval"},
	})

	return handler, flusher, true
}

// SetIngestTrace stamps the context with per-job trace metadata so each
// background ingestion job appears as a distinct, named trace in Langfuse,
// covering any summarization calls the pipeline makes while processing it.
func SetIngestTrace(ctx context.Context, jobID string) context.Context {
	return langfuse.SetTrace(ctx,
		langfuse.WithName("raggify-ingest"),
		langfuse.WithSessionID(jobID),
		langfuse.WithRelease(version.Version),
		langfuse.WithTags("raggify", "ingest"),
	)
}

// SetQueryTrace stamps the context with per-request trace metadata so each
// /query/* request appears as a distinct, named trace in Langfuse, covering
// any LLM-judge rerank calls made while serving it.
func SetQueryTrace(ctx context.Context, route, requestID string) context.Context {
	return langfuse.SetTrace(ctx,
		langfuse.WithName("raggify-query-"+route),
		langfuse.WithSessionID(requestID),
		langfuse.WithRelease(version.Version),
		langfuse.WithTags("raggify", "query", route),
	)
}
