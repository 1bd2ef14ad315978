package domain

import "time"

// Turn is one normalized inbound interaction.
type Turn struct {
	Subscriber string
	UserID     string
	Input      string
}

// Reply is the outbound prompt and continuation flag of a turn.
type Reply struct {
	Text     string
	Continue bool
}

// TurnLog is the audit record of one inbound or outbound message.
type TurnLog struct {
	Subscriber string
	UserID     string
	Message    string
	Continue   bool
	State      State
	SessionID  string
	Timestamp  time.Time
}
