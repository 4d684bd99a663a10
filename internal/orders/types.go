package orders

import (
	"time"

	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

// ListPartition is the single partition of the list index; every order carries it.
const ListPartition = "ORDERS"

const (
	OrderNotFoundError      result.FailureKind = "OrderNotFoundError"
	OrderAlreadyExistsError result.FailureKind = "OrderAlreadyExistsError"
)

// Order represents the item stored in the orders table.
type Order struct {
	OrderID   string    `dynamodbav:"order_id" json:"order_id"` // PK
	SKU       string    `dynamodbav:"sku" json:"sku"`
	Units     int       `dynamodbav:"units" json:"units"`
	Price     float64   `dynamodbav:"price" json:"price"`
	UserID    string    `dynamodbav:"user_id" json:"user_id"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
	ListPK    string    `dynamodbav:"list_pk" json:"-"` // GSI PK, always ListPartition
	ListSK    string    `dynamodbav:"list_sk" json:"-"` // GSI SK, created time then order id
}

// listSortKey orders by creation time; the order id breaks ties.
func listSortKey(created time.Time, orderID string) string {
	return created.UTC().Format("2006-01-02T15:04:05.000000000Z") + "#" + orderID
}

// samePlacement reports whether two orders were placed with the same payload.
func samePlacement(a, b *Order) bool {
	return a.OrderID == b.OrderID &&
		a.SKU == b.SKU &&
		a.Units == b.Units &&
		a.Price == b.Price &&
		a.UserID == b.UserID
}
