// Package main hosts the Course Pilot CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into calls on
// the api package: course ingestion, structuring, plan generation, note
// taking, progress tracking, preference feedback, and database maintenance.
// It centralizes configuration resolution so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
