// Package app defines the runtime contract shared by the cmd/* entrypoints
// (the bridge process and the migration runner).
package app

// Runner represents a runnable application component.
type Runner interface {
	Run() error
}

