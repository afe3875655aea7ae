package engine

import "errors"

var (
	ErrEmptyModel       = errors.New("engine: model has no states or actions")
	ErrUnknownAlgorithm = errors.New("engine: unknown algorithm")
	ErrBadAction        = errors.New("engine: action out of range")
	ErrBadState         = errors.New("engine: state out of range")
	ErrPolicySize       = errors.New("engine: policy does not cover every state")
)
