// Command cutroom is the CLI for the cutroom edit pipeline.
//
// Commands talk to a running cutroomd over its Unix socket when one answers
// and otherwise open the catalog directly, so every command works with or
// without the daemon. Output is plain tables; colour is only used on a TTY.
package main
