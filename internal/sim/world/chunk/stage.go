package chunk

import (
	"errors"
	"fmt"
)

// Stage is a chunk's position in the generate, decorate, light pipeline.
type Stage uint8

const (
	Unloaded Stage = iota
	Generating
	Generated
	Decorating
	Decorated
	PropagationPending
	Ready
)

var ErrIllegalTransition = errors.New("illegal chunk stage transition")

func (s Stage) String() string {
	switch s {
	case Unloaded:
		return "UNLOADED"
	case Generating:
		return "GENERATING"
	case Generated:
		return "GENERATED"
	case Decorating:
		return "DECORATING"
	case Decorated:
		return "DECORATED"
	case PropagationPending:
		return "PROPAGATION_PENDING"
	case Ready:
		return "READY"
	default:
		return fmt.Sprintf("STAGE(%d)", uint8(s))
	}
}

func allowed(from, to Stage) bool {
	if to == Unloaded {
		return true
	}
	switch from {
	case Unloaded:
		// Restored chunks skip straight to their persisted stage.
		return to == Generating || to == Decorated || to == Ready
	case Generating:
		return to == Generated
	case Generated:
		return to == Decorating
	case Decorating:
		return to == Decorated
	case Decorated:
		return to == PropagationPending
	case PropagationPending:
		return to == Ready
	}
	return false
}

// Advance moves the chunk to stage to, rejecting transitions the pipeline does not allow.
func (c *Chunk) Advance(to Stage) error {
	if !allowed(c.stage, to) {
		return fmt.Errorf("chunk %s: %s -> %s: %w", c.Key, c.stage, to, ErrIllegalTransition)
	}
	c.stage = to
	return nil
}

func (c *Chunk) Stage() Stage { return c.stage }

func (c *Chunk) NeedsTerrain() bool     { return c.stage < Generated }
func (c *Chunk) NeedsDecoration() bool  { return c.stage < Decorated }
func (c *Chunk) NeedsPropagation() bool { return c.stage < Ready }
