package stream

import "errors"

// ErrClosed is returned by First when the stream closed before producing a value.
var ErrClosed = errors.New("stream closed")
