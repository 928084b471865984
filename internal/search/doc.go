// Package search obtains batches of candidate events from a generative
// search collaborator and turns its free-text responses into validated,
// structured input for the ingestion processor.
//
// # Overview
//
// The collaborator is a large language model asked to report recent public
// events for a monitored subject and topic. Its responses are untrusted
// text believed to contain one JSON object. The client:
//
//  1. Builds a prompt from the monitor's subject, aliases, topic, and
//     keywords, constrained to a recent time window.
//  2. Calls the collaborator through the Generator interface, recording
//     token usage into the cost tracker.
//  3. Extracts the first balanced {...} span from the response, since
//     models wrap JSON in prose despite instructions not to.
//  4. Parses and validates the span against the batch schema.
//
// # Failure handling
//
// Failures split into two kinds. Transport errors, responses with no JSON
// span, and JSON that does not parse are transient: the same prompt can
// succeed on another attempt, so the client retries with exponential
// backoff (1s, then 2s) up to three attempts total and returns an
// *ExhaustedError when the budget is spent.
//
// Responses that parse but violate the schema (missing events array, an
// unparseable event date, a malformed source URL) are terminal: retrying
// the same prompt against the same model state will not repair structure,
// so the client returns a *SchemaError immediately.
package search
