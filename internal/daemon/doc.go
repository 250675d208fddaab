// Package daemon coordinates the long-running cutroom process.
//
// It wraps an edit pipeline in a single lifecycle with flock-based locking to
// prevent multiple instances. Start repairs work interrupted by an unclean
// shutdown, sweeps stale temp artifacts, prunes old logs, and then keeps a
// periodic sweep running until Stop. Status gathers catalog counts together
// with the dependency and directory preflight so the CLI can render one view.
//
// Edit and render logic stays in the pipeline package; the daemon only owns
// startup, shutdown, and housekeeping.
package daemon
