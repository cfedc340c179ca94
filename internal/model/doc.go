// Package model defines the record type shared across the retrieval engine.
//
// Records arrive from the Sentra source-query API as newline-delimited JSON
// with no fixed schema. The engine only interprets two fields when present:
//   - "id": record identity, used as the deduplication key
//   - "version": orderable value (JSON number), newest version wins
package model
