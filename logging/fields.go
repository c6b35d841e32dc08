package logging

import "go.uber.org/zap"

// Field constructors re-exported so callers never import zap directly,
// matching the teacher's logging.String/logging.Error usage across
// evtforward, assets and nodewallets.
var (
	String  = zap.String
	Int     = zap.Int
	Int64   = zap.Int64
	Uint64  = zap.Uint64
	Bool    = zap.Bool
	Error   = zap.Error
	Any     = zap.Any
	Float64 = zap.Float64
)
