package main

// Exit codes returned by regenbib commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config file, missing API key)
	ExitDataError   = 3 // Data error (malformed store, bibliography or aux file)
)
