package usecase

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewOrderNumber returns a globally unique, lexically sortable order number.
// ULIDs embed a millisecond timestamp, which keeps gateway dashboards and
// database indexes in rough creation order.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD-%s", ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader))
}
