package execution

import "errors"

// ErrExecutionRejected marks a match that was dropped before a nonce was
// ever allocated for it: an unsupported marketplace/kind pair, or the
// match's orders having fallen below the exchange's cancellation
// watermark. No on-chain state changes as a result.
var ErrExecutionRejected = errors.New("execution: rejected")
