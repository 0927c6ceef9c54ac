// Package launcher spawns child processes and streams their combined
// stdout/stderr back to the caller while they run. Two transports are
// supported: an anonymous pipe, and a pseudo-terminal that makes the child
// believe it is writing to an interactive terminal.
package launcher
