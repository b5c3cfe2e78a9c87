// Package events defines the run related events emitted on the event bus.
//
// Available event types:
//   - PlanEvent: schedule computed for a new run
//   - SampleEvent: one control loop tick
//   - RunEndedEvent: final outcome of a run
package events
