// Package errors provides structured, actionable error messages for the
// opinions CLI.
//
// # Error Categories
//
// Errors are organized into categories:
//   - config: configuration file and environment errors
//   - store: storage backend errors
//   - remote: errors talking to an opinions server
//   - validation: rejected user input
//   - cli: bad command-line usage
//
// # Error Codes
//
// Each error has a unique code (e.g., "E103") that maps to a short message
// and a detailed explanation.
//
// # Usage
//
//	err := errors.New("E103").
//	    WithDetail(`Unknown store "mongo".`).
//	    WithSuggestion(`Use one of "memory", "sqlite" or "s3".`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E103: Unknown store backend
//	//
//	//   Unknown store "mongo".
//	//
//	//   Hint: Use one of "memory", "sqlite" or "s3".
package errors
