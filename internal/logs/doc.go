// Package logs reads the session's current output file by byte offset,
// so the CLI can tail it without competing with the writer. The writer
// only ever appends, which keeps offsets stable.
package logs
