// Package resource layers typed resource retrievals on top of the
// streaming engine: each getter binds a datatype and schema prefix and
// hands the caller the lazy record stream. It is a consumer of the engine,
// not part of it.
package resource
