// Package logging builds the process-wide slog logger and the attribute
// helpers shared by every component. Console output promotes the component
// field into the message prefix; JSON output keeps flat keys for ingestion.
package logging
