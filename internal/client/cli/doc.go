// Package cli provides the interactive command-line client for the auth
// server.
//
// The REPL understands:
//
//	help       show available commands
//	register   create a password account (signs in on success)
//	login      sign in with email and password
//	me         show the signed-in profile
//	logout     sign out and forget the access token
//	exit|quit  leave the program
//
// Passwords are read without echo. The access token lives in memory only and
// is discarded on logout or exit. Start the loop with App.Run.
package cli
