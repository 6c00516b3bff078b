// websocket/errors.go
package websocket

import (
	"errors"

	"github.com/coder/websocket"
)

var (
	// ErrConnectionClosed is returned when writing to a closed connection.
	ErrConnectionClosed = errors.New("websocket: connection closed")

	// ErrExpectedTextMessage is returned when a binary frame arrives where
	// a text frame was expected.
	ErrExpectedTextMessage = errors.New("websocket: expected text message")
)

// CloseStatus returns the close code carried by err, or -1 when err is not a
// close frame from the peer.
func CloseStatus(err error) StatusCode {
	return StatusCode(websocket.CloseStatus(err))
}

// IsNormalClose reports whether err is the peer closing normally or going
// away, which is how browsers end a connection on navigation.
func IsNormalClose(err error) bool {
	switch CloseStatus(err) {
	case StatusNormalClosure, StatusGoingAway:
		return true
	}
	return false
}
