// Package mqtt defines the broker port used to publish the charging
// run to external consumers.
package mqtt

// Client publishes presentation messages to an MQTT broker.
type Client interface {
	// Publish sends the payload to the topic. Whether the message is
	// retained is decided by the implementation's configuration.
	Publish(topic string, payload []byte) error

	// Disconnect gracefully closes the connection.
	Disconnect()
}
