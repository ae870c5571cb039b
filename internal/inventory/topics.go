package inventory

const (
	TopicOrderPlaced = "order.placed"
	TopicOrderStatus = "order.status"
	TopicLowStock    = "stock.low"
)

// Partition key = order_id so events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
