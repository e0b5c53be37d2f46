package ecommerce

// Standard ecommerce event types. Event types are free-form strings; these
// constants keep the common ones consistent across services.
const (
	// Orders
	OrderCreated           = "order.created"
	OrderUpdated           = "order.updated"
	OrderCancelled         = "order.cancelled"
	OrderCompleted         = "order.completed"
	OrderRefunded          = "order.refunded"
	OrderPartiallyRefunded = "order.partially_refunded"
	OrderOnHold            = "order.on_hold"
	OrderReleased          = "order.released"
	OrderFraudFlagged      = "order.fraud_flagged"
	OrderFraudCleared      = "order.fraud_cleared"

	// Payments
	PaymentInitiated  = "payment.initiated"
	PaymentAuthorized = "payment.authorized"
	PaymentCaptured   = "payment.captured"
	PaymentFailed     = "payment.failed"
	PaymentRefunded   = "payment.refunded"
	PaymentDisputed   = "payment.disputed"
	PaymentChargeback = "payment.chargeback"

	// Inventory
	InventoryAdjusted       = "inventory.adjusted"
	InventoryReceived       = "inventory.received"
	InventoryReserved       = "inventory.reserved"
	InventoryReleased       = "inventory.released"
	InventoryTransferred    = "inventory.transferred"
	InventoryCounted        = "inventory.counted"
	InventoryWrittenOff     = "inventory.written_off"
	InventoryLowStockAlert  = "inventory.low_stock_alert"
	InventoryRestockOrdered = "inventory.restock_ordered"

	// Products
	ProductCreated      = "product.created"
	ProductUpdated      = "product.updated"
	ProductPriceChanged = "product.price_changed"
	ProductDiscontinued = "product.discontinued"
	ProductRestocked    = "product.restocked"
	ProductOutOfStock   = "product.out_of_stock"

	// Customers
	CustomerCreated     = "customer.created"
	CustomerUpdated     = "customer.updated"
	CustomerVerified    = "customer.verified"
	CustomerBlocked     = "customer.blocked"
	CustomerUnblocked   = "customer.unblocked"
	CustomerMerged      = "customer.merged"
	CustomerTierChanged = "customer.tier_changed"

	// Shipping
	ShipmentCreated        = "shipment.created"
	ShipmentPicked         = "shipment.picked"
	ShipmentPacked         = "shipment.packed"
	ShipmentShipped        = "shipment.shipped"
	ShipmentInTransit      = "shipment.in_transit"
	ShipmentOutForDelivery = "shipment.out_for_delivery"
	ShipmentDelivered      = "shipment.delivered"
	ShipmentFailed         = "shipment.failed"
	ShipmentReturned       = "shipment.returned"

	// Returns
	ReturnRequested = "return.requested"
	ReturnApproved  = "return.approved"
	ReturnRejected  = "return.rejected"
	ReturnReceived  = "return.received"
	ReturnInspected = "return.inspected"
	ReturnProcessed = "return.processed"
	ReturnRefunded  = "return.refunded"

	// Marketing
	CampaignLaunched = "campaign.launched"
	CampaignPaused   = "campaign.paused"
	CampaignEnded    = "campaign.ended"
	PromotionApplied = "promotion.applied"
	CouponCreated    = "coupon.created"
	CouponUsed       = "coupon.used"
	CouponExpired    = "coupon.expired"
	EmailSent        = "email.sent"
	EmailOpened      = "email.opened"
	EmailClicked     = "email.clicked"

	// Carts
	CartCreated     = "cart.created"
	CartItemAdded   = "cart.item_added"
	CartItemRemoved = "cart.item_removed"
	CartAbandoned   = "cart.abandoned"
	CartRecovered   = "cart.recovered"

	// Support
	SupportTicketCreated   = "support.ticket_created"
	SupportTicketUpdated   = "support.ticket_updated"
	SupportTicketResolved  = "support.ticket_resolved"
	SupportTicketEscalated = "support.ticket_escalated"

	// Pricing
	PriceUpdated           = "price.updated"
	PriceRuleApplied       = "price.rule_applied"
	DiscountApplied        = "discount.applied"
	DynamicPricingAdjusted = "price.dynamic_adjusted"

	// AI and automation
	RecommendationGenerated = "ai.recommendation_generated"
	ForecastGenerated       = "ai.forecast_generated"
	AnomalyDetected         = "ai.anomaly_detected"
	ClassificationMade      = "ai.classification_made"
	AutomationTriggered     = "automation.triggered"
)
