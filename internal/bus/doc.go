// Package bus adapts the NATS message feed to the intake buffers.
//
// The subscriber is deliberately thin: the delivery callback only pushes the
// raw payload into the feed's intake buffer and returns. No acknowledgement
// or back-pressure is signalled to the bus; a slow consumer shows up as
// intake growth, not as bus-side flow control.
package bus
