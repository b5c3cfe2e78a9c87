package mqtt

import "errors"

// ErrNotConnected is returned when publishing while the broker
// connection is down and the client has given up retrying.
var ErrNotConnected = errors.New("mqtt client not connected")
