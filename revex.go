// Package revex extracts product reviews from pages whose markup is not known
// ahead of time. A language model infers CSS selectors for the review fields
// from a reduced copy of the page; the selectors are then applied to every
// page of results reachable through the page's "next" control.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, gemini/, goquery/, sqlite/).
package revex
