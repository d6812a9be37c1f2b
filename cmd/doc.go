// Package cmd implements the command-line interface for gtaskall.
//
// This package provides the following commands:
//   - agenda: Show tasks from all accounts grouped by due date
//   - board: Show tasks from all accounts as a three-column board
//   - run: Run the background sync daemon
//   - accounts: Connect, list, reconnect, and remove Google accounts
//   - version: Display version information
//
// The agenda command is the default command when no subcommand is specified.
package cmd
