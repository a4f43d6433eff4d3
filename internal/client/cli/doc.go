// Package cli provides the interactive Glytch command-line client.
//
// It wires configuration, the backend client, the attachment resolver and
// the domain services behind a small REPL. Typical flow: sign in (claiming
// the account's single-session lock), browse DMs and Glytches, resolve
// attachment links, then log out.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
