// Package domain defines core data models and interfaces shared across the
// engine. It contains plain types (records, statuses, events), sentinel
// errors, and contracts (interfaces) only.
package domain
