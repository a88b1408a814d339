// Package api defines the core data types for the workflow runner
//
// This package contains all the shared wire types used across the service,
// including script identifiers, run requests, progress events, step results,
// and HTTP messages
package api
