package enums

import "fmt"

// OutboxDLQErrorReason classifies why an outbox event reached the dead letter queue.
type OutboxDLQErrorReason string

const (
	OutboxDLQErrorReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts_exceeded"
	OutboxDLQErrorReasonBadPayload   OutboxDLQErrorReason = "bad_payload"
	OutboxDLQErrorReasonUnknownTopic OutboxDLQErrorReason = "unknown_topic"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQErrorReasonMaxAttempts,
	OutboxDLQErrorReasonBadPayload,
	OutboxDLQErrorReasonUnknownTopic,
}

// IsValid reports whether the value matches the canonical enum.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseOutboxDLQErrorReason converts raw input into OutboxDLQErrorReason.
func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	for _, candidate := range validOutboxDLQErrorReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox dlq error reason %q", value)
}
