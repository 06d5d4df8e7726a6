package bus

import "errors"

// ErrInvalidEnvelope indicates the message structure is malformed.
var ErrInvalidEnvelope = errors.New("bus: invalid envelope")

// ErrNoHandler indicates no registered handler matched the message.
var ErrNoHandler = errors.New("bus: no handler registered")

// ErrSchemaValidation indicates the payload did not match the expected type.
var ErrSchemaValidation = errors.New("bus: schema validation failed")
