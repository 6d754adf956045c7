package framesync

import "errors"

var (
	// ErrSourceNotFound is returned by an Opener when the source id cannot be resolved.
	ErrSourceNotFound = errors.New("framesync: source not found")
	// ErrDecode is returned when the stream cannot be opened or a frame cannot be decoded.
	ErrDecode = errors.New("framesync: decode error")
	// ErrZeroLengthStream is returned when a stream reports no frames.
	ErrZeroLengthStream = errors.New("framesync: zero-length stream")
	// ErrInvalidFrameRate is returned when a stream reports a non-positive frame rate.
	ErrInvalidFrameRate = errors.New("framesync: invalid frame rate")
	// ErrFrameTooLarge is returned when a frame side exceeds MaxFrameDimension.
	ErrFrameTooLarge = errors.New("framesync: frame too large")
	// ErrNoOpener is returned by Load when the controller was built without an Opener.
	ErrNoOpener = errors.New("framesync: no opener configured")
)
