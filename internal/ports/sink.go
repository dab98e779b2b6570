package ports

// Sink accepts outbound protocol messages bound for the extension peer.
// Implementations handle serialization, framing and rate limiting; callers
// just hand over the message value.
type Sink interface {
	// Send delivers one message. A nil error does not guarantee the
	// message was written: rate-limited progress updates are dropped
	// silently by design.
	Send(msg any) error
}
