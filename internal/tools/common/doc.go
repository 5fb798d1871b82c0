// Package common provides the argument helpers and the instrumentation
// wrapper shared by the MCP tool packages.
package common
