package hh

import "errors"

var (
	// ErrInvalidStep is returned when a driver is configured with a non positive time step.
	ErrInvalidStep = errors.New("hh: time step must be strictly positive")
	// ErrEmptyStimulus is returned when a driver is given no stimulus sample.
	ErrEmptyStimulus = errors.New("hh: stimulus has no sample")
	// ErrInvalidParams is returned for physically meaningless membrane constants.
	ErrInvalidParams = errors.New("hh: invalid membrane parameters")
	// ErrUnknownPolicy is returned when a singularity policy name cannot be parsed.
	ErrUnknownPolicy = errors.New("hh: unknown singularity policy")
	// ErrRunNotFound is returned by the store when a run does not exist.
	ErrRunNotFound = errors.New("hh: run not found")
)
