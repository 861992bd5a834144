package sales

// ChangeKind classifies a committed mutation.
type ChangeKind string

const (
	Added   ChangeKind = "Added"
	Updated ChangeKind = "Updated"
	Deleted ChangeKind = "Deleted"
)

// Change is an immutable record of one committed mutation: its kind and a
// copy of the resulting entity state. Exactly one Change is produced per
// accepted mutation, never for rejected ones.
type Change[T any] struct {
	Kind    ChangeKind `json:"kind"`
	Payload T          `json:"payload"`
}

// CustomerChange is the payload of the CustomerChanged topic.
type CustomerChange = Change[Customer]

// OrderChange is the payload of the OrderChanged topic. The payload carries
// the product name as read at commit time.
type OrderChange = Change[OrderView]

// Topic names on the event-stream connection.
const (
	TopicCustomerChanged = "CustomerChanged"
	TopicOrderChanged    = "OrderChanged"
)
