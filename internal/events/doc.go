// Package events implements the synchronous publish/subscribe bus that
// decouples UI actions from engine operations.
//
// Dispatch is synchronous: Emit returns only after every listener has run.
// A panicking listener is recovered and logged without preventing delivery
// to the remaining listeners.
package events
