package dappbind

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Result is the outcome of a contract method invocation. Exactly one of
// Values or Reason is meaningful: a failed remote call leaves Values nil and
// puts a displayable explanation in Reason.
type Result struct {
	Values []any
	Reason string
	// Err is the underlying *CallError when the remote call failed.
	Err error
}

// Failed reports whether the remote call failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Display returns what a UI should render: the values on success, the reason otherwise.
func (r Result) Display() any {
	if r.Failed() {
		return r.Reason
	}
	return r.Values
}

func (r Result) String() string {
	if r.Failed() {
		return r.Reason
	}
	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

const revertPrefix = "execution reverted: "

// reasoner is implemented by errors that carry their own display reason.
type reasoner interface {
	Reason() string
}

// failureReason extracts a human-readable reason from a failed call.
func failureReason(err error) (string, bool) {
	var r reasoner
	if errors.As(err, &r) && r.Reason() != "" {
		return r.Reason(), true
	}

	var de rpc.DataError
	if errors.As(err, &de) {
		if data, ok := de.ErrorData().(string); ok {
			if raw, derr := hexutil.Decode(data); derr == nil {
				if reason, uerr := abi.UnpackRevert(raw); uerr == nil && reason != "" {
					return reason, true
				}
			}
		}
	}

	if errors.Is(err, ErrSignerRequired) {
		return ErrSignerRequired.Error(), true
	}

	msg := err.Error()
	if i := strings.Index(msg, revertPrefix); i >= 0 {
		if reason := strings.TrimSpace(msg[i+len(revertPrefix):]); reason != "" {
			return reason, true
		}
	}
	return "", false
}
