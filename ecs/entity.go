package ecs

import (
	"errors"
	"fmt"
	"strconv"
)

// EntityId encodes a slot index (lower IndexBits bits) and the generation of
// that slot (upper GenerationBits bits). Treat it as opaque outside this package.
type EntityId uint32

const (
	GenerationBits = 8
	IndexBits      = 32 - GenerationBits

	IndexMask      = 1<<IndexBits - 1
	GenerationMask = 1<<GenerationBits - 1

	// MaxGeneration bounds slot generations. The all-ones generation is
	// reserved so that the all-ones id can never be live; the allocator
	// retires a slot once its generation reaches MaxGeneration.
	MaxGeneration = GenerationMask - 1
)

var (
	ErrEntityNotAlive        = errors.New("ecs: entity not alive")
	ErrGenerationExhausted   = errors.New("ecs: generation space exhausted")
	ErrIndexSpaceExhausted   = errors.New("ecs: index space exhausted")
	ErrMissingTransform      = errors.New("ecs: transform is required")
	ErrInvalidComponent      = errors.New("ecs: invalid component")
	ErrUnknownScript         = errors.New("ecs: unknown script")
	ErrUnregisteredComponent = errors.New("ecs: component type not registered")
)

// ContractError is the panic value raised when a caller breaks a liveness
// contract. It is not meant to be recovered in normal operation.
type ContractError struct {
	Op  string
	Id  EntityId
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Id, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

func violation(op string, id EntityId, err error) {
	panic(&ContractError{Op: op, Id: id, Err: err})
}

// NewEntityId packs an index and a generation. The caller guarantees
// index <= IndexMask and generation <= GenerationMask.
func NewEntityId(index uint32, generation uint32) EntityId {
	return EntityId(index&IndexMask | (generation&GenerationMask)<<IndexBits)
}

// Index extracts the slot index.
func (e EntityId) Index() uint32 {
	return uint32(e) & IndexMask
}

// Generation extracts the slot generation.
func (e EntityId) Generation() uint32 {
	return (uint32(e) >> IndexBits) & GenerationMask
}

// BumpGeneration returns the id for the same index with the next generation.
// It panics when the next generation would be the reserved all-ones value.
func (e EntityId) BumpGeneration() EntityId {
	next := e.Generation() + 1
	if next > MaxGeneration {
		violation("bump", e, ErrGenerationExhausted)
	}
	return NewEntityId(e.Index(), next)
}

func (e EntityId) String() string {
	return strconv.FormatUint(uint64(e.Index()), 10) + ":" + strconv.FormatUint(uint64(e.Generation()), 10)
}

// Sentinel selects which packed value denotes "no entity".
type Sentinel uint8

const (
	// SentinelMax uses the all-ones word. Every index is usable.
	SentinelMax Sentinel = iota
	// SentinelZero uses 0. Index 0 is reserved and never handed out.
	SentinelZero
)

// InvalidEntityId is the sentinel under the default SentinelMax policy.
const InvalidEntityId = EntityId(^uint32(0))

// Id returns the invalid id for the policy.
func (s Sentinel) Id() EntityId {
	if s == SentinelZero {
		return 0
	}
	return InvalidEntityId
}

// IsValid reports whether id differs from the policy's invalid id.
func (s Sentinel) IsValid(id EntityId) bool {
	return id != s.Id()
}

func (s Sentinel) String() string {
	if s == SentinelZero {
		return "zero"
	}
	return "max"
}

// ParseSentinel accepts "max" (or "") and "zero".
func ParseSentinel(v string) (Sentinel, error) {
	switch v {
	case "", "max":
		return SentinelMax, nil
	case "zero":
		return SentinelZero, nil
	}
	return SentinelMax, fmt.Errorf("ecs: unknown sentinel policy %q", v)
}
