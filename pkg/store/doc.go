// Package store provides the authoritative opinion and account storage
// behind the HTTP server.
//
// Three backends implement Store:
//
//   - MemoryStore keeps everything in process. It is the default and the
//     backend used by tests.
//   - SQLStore persists to SQLite through modernc.org/sqlite.
//   - S3Store keeps a MemoryStore and writes a JSON snapshot to an S3
//     object after every change, loading it again on open.
//
// All backends are safe for concurrent use. Passwords are stored as bcrypt
// hashes only.
//
// Collaborator adapts a Store to opinion.Store, opinion.Lister and
// signup.Registrar, so a single-process deployment can skip HTTP.
package store
