// Package errcode gives the assembler's own failures the same typed,
// classified shape the teacher's errcode package gives host-chain
// failures — a ProjectError carrying a module name and stable code,
// rather than ad hoc fmt.Errorf strings. Wrapping (stack context) is
// layered on top with github.com/pkg/errors at call sites, exactly as
// the teacher does.
package errcode

import "fmt"

// MiningErr enumerates assembler-specific failure codes; spec.md §6
// treats mempool/consensus rejection as internal control flow rather
// than error returns, so these codes are reserved for genuine
// assembler faults (bad configuration, an unsatisfiable byte budget,
// a signer/staking collaborator failure).
type MiningErr int

const (
	ErrNoAvailableCoinstake MiningErr = iota
	ErrBudgetTooSmall
	ErrSignBlockFailed
	ErrDifficultyUnavailable
)

func (e MiningErr) String() string {
	switch e {
	case ErrNoAvailableCoinstake:
		return "no coinstake available to sign this block with"
	case ErrBudgetTooSmall:
		return "configured block size/weight budget is below the consensus minimum"
	case ErrSignBlockFailed:
		return "block signing failed"
	case ErrDifficultyUnavailable:
		return "difficulty calculator returned no result for the current tip"
	default:
		return "unknown mining error"
	}
}

const MiningErrorBase = 9000

type ProjectError struct {
	Module string
	Code   int
	Desc   string
}

func (e ProjectError) Error() string {
	return fmt.Sprintf("module: %s, code: %d, desc: %s", e.Module, e.Code, e.Desc)
}

func New(errCode fmt.Stringer) error {
	code, module := codeAndModule(errCode)
	return ProjectError{Module: module, Code: code, Desc: errCode.String()}
}

func IsErrorCode(err error, errCode fmt.Stringer) bool {
	pe, ok := err.(ProjectError)
	if !ok {
		return false
	}
	code, _ := codeAndModule(errCode)
	return pe.Code == code
}

func codeAndModule(errCode fmt.Stringer) (int, string) {
	switch t := errCode.(type) {
	case MiningErr:
		return MiningErrorBase + int(t), "mining"
	default:
		return -1, "unknown"
	}
}
