package chat

// DefaultLogSize matches the number of recent messages the overlay keeps.
const DefaultLogSize = 50

// Log keeps the most recent messages in arrival order.
// The zero value is not usable; call NewLog.
type Log struct {
	size int
	msgs []Message
}

// NewLog returns a log holding at most size messages (DefaultLogSize when size <= 0).
func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &Log{size: size, msgs: make([]Message, 0, size)}
}

// Append adds msg and drops the oldest entry once the log is full.
func (l *Log) Append(msg Message) {
	if len(l.msgs) == l.size {
		copy(l.msgs, l.msgs[1:])
		l.msgs = l.msgs[:l.size-1]
	}
	l.msgs = append(l.msgs, msg)
}

// Messages returns the buffered messages, oldest first. The slice is shared
// with the log and must not be modified.
func (l *Log) Messages() []Message { return l.msgs }

// Len returns the number of buffered messages.
func (l *Log) Len() int { return len(l.msgs) }

// Last returns the newest message.
func (l *Log) Last() (Message, bool) {
	if len(l.msgs) == 0 {
		return Message{}, false
	}
	return l.msgs[len(l.msgs)-1], true
}

// Reset empties the log.
func (l *Log) Reset() { l.msgs = l.msgs[:0] }
