package billing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewTransactionID builds a user-facing transaction identifier: a TXN
// prefix, a millisecond timestamp, and a random suffix. Collisions are
// vanishingly unlikely; the unique index on payments.transaction_id is the
// backstop, and the orchestrator regenerates on a duplicate-key error
// instead of ever overwriting.
func NewTransactionID() string {
	suffix := make([]byte, 5)
	rand.Read(suffix)
	return fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), strings.ToUpper(hex.EncodeToString(suffix)))
}
