// Package infra holds the technical adapters around the control loop:
// the simulator HTTP client, the embedded simulator server, the MQTT
// publisher, metrics sinks and logging. These packages implement the
// interfaces defined under core and must not be imported by it.
package infra
