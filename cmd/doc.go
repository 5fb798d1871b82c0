// Package cmd implements the command-line interface for autoagenda.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the scheduling tools
//   - slots: List the free slots of a day
//   - book: Book a slot for a customer and vehicle
//   - history: Show the latest bookings of a vehicle
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Every command reads its configuration from the environment first;
// the persistent flags of the root command override it.
package cmd
