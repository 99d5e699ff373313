package execution

import "github.com/gladcow/silkworm/common"

// Verdict is the tagged sum ValidateChain returns: exactly one of
// ValidChain, InvalidChain or ValidationError.
// Exhaustive matching at the call site is a correctness requirement;
// the unexported marker method keeps the sum closed to this package.
type Verdict interface {
	isVerdict()
}

// ValidChain means target's ancestry verified successfully.
type ValidChain struct {
	CurrentHead common.Hash
}

func (ValidChain) isVerdict() {}

// InvalidChain means some branch along target's ancestry is bad.
// BadBlock is nil when the engine could not pin down a single
// offending block.
type InvalidChain struct {
	LatestValidHead common.Hash
	BadBlock        *common.Hash
	BadHeaders      []common.Hash
}

func (InvalidChain) isVerdict() {}

// ValidationError means the engine could not decide — e.g. a missing
// ancestor. Fatal to the driver.
type ValidationError struct {
	LatestValidHead common.Hash
	MissingBlock    common.Hash
}

func (ValidationError) isVerdict() {}
