package trace

import "fmt"

// ActorType identifies what kind of entity performed an action.
type ActorType string

const (
	ActorUser     ActorType = "user"     // Human user
	ActorAIAgent  ActorType = "ai_agent" // AI/LLM agent
	ActorCompute  ActorType = "compute"  // Automated job or script
	ActorSystem   ActorType = "system"   // System-internal action
	ActorExternal ActorType = "external" // External service/API
)

// AllActorTypes lists every ActorType in declaration order.
var AllActorTypes = []ActorType{ActorUser, ActorAIAgent, ActorCompute, ActorSystem, ActorExternal}

// Valid reports whether t is a known actor type.
func (t ActorType) Valid() bool {
	switch t {
	case ActorUser, ActorAIAgent, ActorCompute, ActorSystem, ActorExternal:
		return true
	}
	return false
}

// ParseActorType parses a stored actor type tag.
func ParseActorType(s string) (ActorType, error) {
	t := ActorType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown actor type %q", s)
	}
	return t, nil
}

// ObjectType identifies the kind of business entity a TrackedObject is.
type ObjectType string

const (
	ObjectOrder     ObjectType = "order"
	ObjectProduct   ObjectType = "product"
	ObjectCustomer  ObjectType = "customer"
	ObjectInventory ObjectType = "inventory"
	ObjectCart      ObjectType = "cart"
	ObjectPayment   ObjectType = "payment"
	ObjectShipment  ObjectType = "shipment"
	ObjectReturn    ObjectType = "return"
	ObjectRefund    ObjectType = "refund"

	ObjectCampaign     ObjectType = "campaign"
	ObjectPromotion    ObjectType = "promotion"
	ObjectCoupon       ObjectType = "coupon"
	ObjectEmail        ObjectType = "email"
	ObjectNotification ObjectType = "notification"

	ObjectSupplier  ObjectType = "supplier"
	ObjectWarehouse ObjectType = "warehouse"
	ObjectCategory  ObjectType = "category"
	ObjectPrice     ObjectType = "price"

	ObjectReport   ObjectType = "report"
	ObjectForecast ObjectType = "forecast"

	ObjectCustom ObjectType = "custom"
)

// AllObjectTypes lists every ObjectType in declaration order.
var AllObjectTypes = []ObjectType{
	ObjectOrder, ObjectProduct, ObjectCustomer, ObjectInventory, ObjectCart,
	ObjectPayment, ObjectShipment, ObjectReturn, ObjectRefund,
	ObjectCampaign, ObjectPromotion, ObjectCoupon, ObjectEmail, ObjectNotification,
	ObjectSupplier, ObjectWarehouse, ObjectCategory, ObjectPrice,
	ObjectReport, ObjectForecast,
	ObjectCustom,
}

var validObjectTypes = func() map[ObjectType]bool {
	m := make(map[ObjectType]bool, len(AllObjectTypes))
	for _, t := range AllObjectTypes {
		m[t] = true
	}
	return m
}()

// Valid reports whether t is a known object type.
func (t ObjectType) Valid() bool {
	return validObjectTypes[t]
}

// ParseObjectType parses a stored object type tag.
func ParseObjectType(s string) (ObjectType, error) {
	t := ObjectType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown object type %q", s)
	}
	return t, nil
}

// Outcome is the result of a traced event.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomePartial   Outcome = "partial"
	OutcomePending   Outcome = "pending"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeSkipped   Outcome = "skipped"
)

// AllOutcomes lists every Outcome in declaration order.
var AllOutcomes = []Outcome{OutcomeSuccess, OutcomeFailure, OutcomePartial, OutcomePending, OutcomeCancelled, OutcomeSkipped}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomePartial, OutcomePending, OutcomeCancelled, OutcomeSkipped:
		return true
	}
	return false
}

// ParseOutcome parses a stored outcome tag.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown outcome %q", s)
	}
	return o, nil
}
