// Package api provides the Sentra analytics API client.
//
// The source-query endpoint is the engine's data source: it takes an org,
// a source uid, a time window and a datatype, and answers with
// newline-delimited JSON records. Supporting endpoints list the org's
// record sources and agents and hydrate full objects by id.
package api
