// Package logging builds the slog loggers used by the sebasite CLI and daemon.
//
// Two line formats are supported: a console format that leads with the
// component and the request context (request id, collection/operation) for
// people reading a terminal, and a JSON format whose keys (ts, level, msg,
// event_type) are what `sebasite logs` decodes. Warnings and errors go
// through WarnWithContext/ErrorWithContext so every one of them names an
// event type and a next step for the operator.
package logging
