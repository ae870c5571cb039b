package redisx

import "time"

const (
	// Cache of an order's status: order_status:{order_id} -> {"status":"..."}
	KeyOrderStatus = "order_status:%s"

	// Cached body of the revenue summary endpoint, dropped on every placement.
	KeySummary = "order_summary"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Last low-stock alert per product: lowstock:{product_id} -> stock level
	KeyLowStock = "lowstock:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLSummary     = time.Minute
	TTLDedup       = 48 * time.Hour
	TTLLowStock    = time.Hour
)
