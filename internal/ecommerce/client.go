package ecommerce

import (
	"fmt"

	"github.com/roach88/dtrace/internal/trace"
	"github.com/roach88/dtrace/internal/tracer"
	"github.com/roach88/dtrace/internal/value"
)

// Client adds typed builders for common ecommerce events on top of a
// tracer.Client. Each method returns a builder so callers can attach an
// actor or extra fields before recording.
type Client struct {
	*tracer.Client
}

// New creates an ecommerce client recording through saver.
func New(saver tracer.Saver, opts ...tracer.Option) *Client {
	return &Client{Client: tracer.New(saver, opts...)}
}

// Wrap adds the ecommerce builders to an existing tracer client.
func Wrap(c *tracer.Client) *Client {
	return &Client{Client: c}
}

// Orders

// OrderCreated traces a newly placed order.
func (c *Client) OrderCreated(orderID, customerID string, total float64, items []value.Object) *tracer.Builder {
	lines := make(value.Array, len(items))
	for i, item := range items {
		lines[i] = item
	}
	return c.Trace(OrderCreated, fmt.Sprintf("Order %s created", orderID)).
		AffectingOrder(orderID, value.Object{
			"total":  value.Float(total),
			"items":  lines,
			"status": value.String("created"),
		}).
		AffectingCustomer(customerID, nil).
		WithTags("order", "new")
}

// OrderCancelled traces an order cancellation. A zero refund is omitted.
func (c *Client) OrderCancelled(orderID, reason string, refundAmount float64) *tracer.Builder {
	b := c.Trace(OrderCancelled, fmt.Sprintf("Order %s cancelled: %s", orderID, reason)).
		AffectingOrder(orderID, value.Object{"status": value.String("cancelled")}).
		Because(reason)
	if refundAmount > 0 {
		b.WithData("refund_amount", refundAmount)
	}
	return b.WithTags("order", "cancellation")
}

// OrderRefunded traces a refund. paymentID may be empty.
func (c *Client) OrderRefunded(orderID string, amount float64, reason, paymentID string) *tracer.Builder {
	b := c.Trace(OrderRefunded, fmt.Sprintf("Refund $%.2f for order %s", amount, orderID)).
		AffectingOrder(orderID, value.Object{
			"refund_amount": value.Float(amount),
			"status":        value.String("refunded"),
		}).
		Because(reason).
		WithTags("order", "refund")
	if paymentID != "" {
		b.AffectingPayment(paymentID, value.Object{
			"status": value.String("refunded"),
			"amount": value.Float(amount),
		})
	}
	return b
}

// Inventory

// InventoryAdjusted traces a manual or automatic stock correction.
func (c *Client) InventoryAdjusted(sku string, before, after int64, reason string) *tracer.Builder {
	delta := after - before
	return c.Trace(InventoryAdjusted, fmt.Sprintf("Inventory %s: %d -> %d (%+d)", sku, before, after, delta)).
		AffectingInventory(sku, &before, &after).
		Because(reason).
		WithData("delta", delta).
		WithTags("inventory")
}

// LowStock traces a low stock alert. Risk is high once stock is exhausted.
func (c *Client) LowStock(sku string, current, threshold int64) *tracer.Builder {
	risk := "medium"
	if current <= 0 {
		risk = "high"
	}
	return c.Trace(InventoryLowStockAlert, fmt.Sprintf("Low stock alert: %s at %d (threshold: %d)", sku, current, threshold)).
		AffectingInventory(sku, nil, &current).
		Because(fmt.Sprintf("Stock level %d is below threshold %d", current, threshold)).
		WithContext(value.Object{"threshold": value.Int(threshold)}).
		WithRisk(risk).
		WithTags("inventory", "alert", "low-stock")
}

// RestockOrdered traces a purchase order placed with a supplier.
func (c *Client) RestockOrdered(sku string, quantity int64, supplier string) *tracer.Builder {
	return c.Trace(InventoryRestockOrdered, fmt.Sprintf("Ordered %d units of %s from %s", quantity, sku, supplier)).
		AffectingInventory(sku, nil, nil).
		AffectingObject(trace.ObjectSupplier, "supplier-"+supplier, tracer.ExternalID(supplier)).
		WithData("quantity_ordered", quantity).
		WithData("supplier", supplier).
		WithTags("inventory", "restock", "purchase-order")
}

// Payments

// PaymentCaptured traces a successful capture. An empty processor is
// recorded as "payment-processor".
func (c *Client) PaymentCaptured(paymentID, orderID string, amount float64, method, processor string) *tracer.Builder {
	if processor == "" {
		processor = "payment-processor"
	}
	return c.Trace(PaymentCaptured, fmt.Sprintf("Payment $%.2f captured for order %s", amount, orderID)).
		AffectingPayment(paymentID, value.Object{
			"amount": value.Float(amount),
			"status": value.String("captured"),
			"method": value.String(method),
		}).
		AffectingOrder(orderID, nil).
		WithSource(processor, "").
		WithTags("payment", "capture")
}

// PaymentFailed traces a declined or errored payment.
func (c *Client) PaymentFailed(paymentID, orderID string, amount float64, code, message string) *tracer.Builder {
	return c.Trace(PaymentFailed, fmt.Sprintf("Payment failed for order %s: %s", orderID, code)).
		AffectingPayment(paymentID, value.Object{
			"status": value.String("failed"),
			"amount": value.Float(amount),
		}).
		AffectingOrder(orderID, nil).
		Failed(message, code).
		WithTags("payment", "failure")
}

// Shipping

// ShipmentCreated traces a new shipment. trackingNumber may be empty.
func (c *Client) ShipmentCreated(shipmentID, orderID, carrier, trackingNumber string) *tracer.Builder {
	state := value.Object{
		"status":  value.String("created"),
		"carrier": value.String(carrier),
	}
	if trackingNumber != "" {
		state["tracking_number"] = value.String(trackingNumber)
	}
	return c.Trace(ShipmentCreated, fmt.Sprintf("Shipment %s created for order %s", shipmentID, orderID)).
		AffectingShipment(shipmentID, state).
		AffectingOrder(orderID, nil).
		WithTags("shipment", "fulfillment")
}

// Customers

// CustomerTierChanged traces a loyalty tier move.
func (c *Client) CustomerTierChanged(customerID, oldTier, newTier, reason string) *tracer.Builder {
	return c.Trace(CustomerTierChanged, fmt.Sprintf("Customer %s tier changed: %s -> %s", customerID, oldTier, newTier)).
		AffectingCustomer(customerID, nil,
			tracer.StateBefore(value.Object{"tier": value.String(oldTier)}),
			tracer.StateAfter(value.Object{"tier": value.String(newTier)})).
		Because(reason).
		WithTags("customer", "loyalty", "tier-change")
}

// AI and automation

func aiAgentID(model string) string {
	return "ai-" + model
}

// AIRecommendation traces a model-generated recommendation.
func (c *Client) AIRecommendation(kind string, recommendation, context value.Object, confidence float64, model string, affected ...trace.TrackedObject) *tracer.Builder {
	b := c.Trace(RecommendationGenerated, "AI recommendation: "+kind).
		ByAI(aiAgentID(model), fmt.Sprintf("AI Recommender (%s)", kind), model, "").
		Because(fmt.Sprintf("Generated %s recommendation", kind)).
		WithContext(context).
		WithConfidence(confidence).
		WithData("recommendation", recommendation).
		WithTags("ai", "recommendation", kind)
	for _, obj := range affected {
		b.Affecting(obj)
	}
	return b
}

// AnomalyDetected traces an anomaly flagged by a model. An empty model is
// recorded as "anomaly-detector".
func (c *Client) AnomalyDetected(kind, description, severity string, context value.Object, model string, affected ...trace.TrackedObject) *tracer.Builder {
	if model == "" {
		model = "anomaly-detector"
	}
	b := c.Trace(AnomalyDetected, "Anomaly detected: "+kind).
		ByAI(aiAgentID(model), "Anomaly Detector", model, "").
		Because(description).
		WithContext(context).
		WithRisk(severity).
		WithTags("ai", "anomaly", kind, severity)
	for _, obj := range affected {
		b.Affecting(obj)
	}
	return b
}

// AutomationTriggered traces an automation rule firing.
func (c *Client) AutomationTriggered(name, trigger string, actions []string) *tracer.Builder {
	return c.Trace(AutomationTriggered, fmt.Sprintf("Automation '%s' triggered by %s", name, trigger)).
		ByCompute("automation-"+name, name, "automation-engine", "").
		TriggeredBy(trigger, "").
		Because("Automation triggered: "+trigger).
		WithData("actions", actions).
		WithTags("automation", name)
}

// Pricing

// PriceUpdated traces a price change on a product.
func (c *Client) PriceUpdated(productID string, oldPrice, newPrice float64, reason string) *tracer.Builder {
	change := newPrice - oldPrice
	pct := 0.0
	if oldPrice > 0 {
		pct = change / oldPrice * 100
	}
	return c.Trace(PriceUpdated, fmt.Sprintf("Price updated for %s: $%.2f -> $%.2f", productID, oldPrice, newPrice)).
		AffectingProduct(productID, nil).
		AffectingObject(trace.ObjectPrice, "price-"+productID,
			tracer.StateBefore(value.Object{"price": value.Float(oldPrice)}),
			tracer.StateAfter(value.Object{"price": value.Float(newPrice)})).
		Because(reason).
		WithData("price_change", change).
		WithData("price_change_pct", pct).
		WithTags("pricing", "price-change")
}
