// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package static turns a single request line read from a connection into a
// static file response.
//
// A connection is served in three steps. The request line is parsed by
// [ReadRequest], the requested path is mapped to a file below the document
// root by a [Resolver] and the reply is assembled by [BuildResponse]. The
// [Handler] wires these together for one connection at a time and is meant
// to be run as a worker pool job.
//
// Responses never carry headers other than Content-Type and the connection
// is always closed after the response is written.
package static
