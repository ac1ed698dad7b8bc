// Package rotate persists tailed log lines to disk, rotating the output
// file by accumulated size or by calendar day. Exactly one file is open
// for writing at any instant; files are only ever appended to, never
// truncated or rewritten.
package rotate
