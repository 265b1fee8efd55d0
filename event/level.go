// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package event

import (
	"fmt"
	"sync/atomic"
)

// Level is the severity of an event. Levels are totally ordered:
// LevelVerbose < LevelDebug < ... < LevelFatal.
type Level int

const (
	LevelVerbose Level = iota
	LevelDebug
	LevelInformation
	LevelWarning
	LevelError
	LevelFatal
)

// String returns the conventional name of the level.
func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "Verbose"
	case LevelDebug:
		return "Debug"
	case LevelInformation:
		return "Information"
	case LevelWarning:
		return "Warning"
	case LevelError:
		return "Error"
	case LevelFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// A LevelVar is a Level variable which is safe for concurrent use
// by multiple goroutines. It allows the minimum severity of a sink
// to be raised or lowered while the sink is in use.
//
// The zero LevelVar corresponds to LevelVerbose.
type LevelVar struct {
	val atomic.Int32
}

// Level returns the current level.
func (v *LevelVar) Level() Level {
	return Level(v.val.Load())
}

// Set updates the current level.
func (v *LevelVar) Set(l Level) {
	v.val.Store(int32(l))
}
