// Package logging provides structured logging utilities for the autoagenda application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (customer contacts hashed, vehicle plates masked)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "booking.commit")
//	logger.Info("booking committed",
//	    logging.Calendar(calendarID),
//	    logging.EventID(eventID),
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("history lookup",
//	    logging.CustomerHash(contact),
//	    logging.Plate(plate))
//
// # Security Considerations
//
//   - Customer contacts are hashed to prevent PII leakage while allowing correlation
//   - Plates keep only their last two characters
//   - Credentials are never logged directly
package logging
