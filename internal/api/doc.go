// Package api exposes the course workflows as plain functions over request
// structs. Each function validates its input, opens the store for the
// duration of the call, and returns domain types from the course package.
// The CLI is a thin shell over this package.
package api
