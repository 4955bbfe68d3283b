// Package harvest extracts text fragments from configured web pages on a
// recurring schedule and stores them for later retrieval.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, rod/, goquery/).
package harvest
