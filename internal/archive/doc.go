// Package archive persists retrieved records to PostgreSQL.
//
// Archiving is optional and enabled by configuring a database host.
// Records are written append-only in batches; each retrieval run is
// tagged with a batch id so runs can be compared or replayed later.
package archive
