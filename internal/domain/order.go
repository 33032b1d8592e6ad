package domain

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

type LineItem struct {
	Name          string  `json:"name" bson:"name"`
	Price         float64 `json:"price" bson:"price"`
	OriginalPrice float64 `json:"originalPrice,omitempty" bson:"original_price,omitempty"`
	Quantity      int     `json:"quantity" bson:"quantity"`
}

// Qty returns the item quantity, defaulting to 1 when the client omitted it.
func (i LineItem) Qty() int {
	if i.Quantity <= 0 {
		return 1
	}
	return i.Quantity
}

// PendingOrder is written by the checkout flow before payment completes and
// deleted once the confirmed order supersedes it.
type PendingOrder struct {
	ID              string        `json:"id" bson:"_id"`
	UserID          string        `json:"userId" bson:"user_id"`
	Items           []LineItem    `json:"items" bson:"items"`
	Total           float64       `json:"total" bson:"total"`
	ShippingAddress AddressInput  `json:"shippingAddress" bson:"shipping_address"`
	CustomerDetails CustomerInput `json:"customerDetails" bson:"customer_details"`
	CreatedAt       time.Time     `json:"createdAt" bson:"created_at"`
}

// ShipmentInfo is the carrier sub-record on a confirmed order. Once a waybill
// is assigned it is only ever replaced by a newer waybill, never cleared.
type ShipmentInfo struct {
	Waybill      string         `json:"waybill" bson:"waybill"`
	Status       string         `json:"status" bson:"status"`
	TrackingURL  string         `json:"tracking_url,omitempty" bson:"tracking_url,omitempty"`
	PaymentMode  string         `json:"payment_mode" bson:"payment_mode"`
	UsedDefaults bool           `json:"used_defaults" bson:"used_defaults"`
	CreatedAt    time.Time      `json:"createdAt" bson:"created_at"`
	Response     map[string]any `json:"-" bson:"response,omitempty"`
}

type DiscountLine struct {
	ProductName        string  `json:"productName" bson:"product_name"`
	OriginalPrice      float64 `json:"originalPrice" bson:"original_price"`
	DiscountedPrice    float64 `json:"discountedPrice" bson:"discounted_price"`
	Quantity           int     `json:"quantity" bson:"quantity"`
	SavingsAmount      float64 `json:"savingsAmount" bson:"savings_amount"`
	DiscountPercentage float64 `json:"discountPercentage" bson:"discount_percentage"`
}

// Order is the durable record created exactly once per successful payment.
type Order struct {
	ID              string         `json:"id" bson:"_id"`
	UserID          string         `json:"userId" bson:"user_id"`
	Items           []LineItem     `json:"items" bson:"items"`
	Total           float64        `json:"total" bson:"total"`
	OriginalTotal   float64        `json:"originalTotal" bson:"original_total"`
	TotalSavings    float64        `json:"totalSavings" bson:"total_savings"`
	DiscountDetails []DiscountLine `json:"discountDetails" bson:"discount_details"`
	HasDiscounts    bool           `json:"hasDiscounts" bson:"has_discounts"`
	ShippingAddress AddressInput   `json:"shippingAddress" bson:"shipping_address"`
	CustomerDetails CustomerInput  `json:"customerDetails" bson:"customer_details"`
	Status          OrderStatus    `json:"status" bson:"status"`
	PaymentStatus   string         `json:"paymentStatus" bson:"payment_status"`
	PaymentID       string         `json:"paymentId" bson:"payment_id"`
	PaymentData     map[string]any `json:"paymentData,omitempty" bson:"payment_data,omitempty"`

	Shipment             *ShipmentInfo `json:"delhivery,omitempty" bson:"delhivery,omitempty"`
	ShippingStatus       string        `json:"shippingStatus,omitempty" bson:"shipping_status,omitempty"`
	ShippingPartner      string        `json:"shippingPartner,omitempty" bson:"shipping_partner,omitempty"`
	DelhiveryError       string        `json:"delhiveryError,omitempty" bson:"delhivery_error,omitempty"`
	DelhiveryRetryNeeded bool          `json:"delhiveryRetryNeeded" bson:"delhivery_retry_needed"`

	PaymentCompletedAt time.Time `json:"paymentCompletedAt" bson:"payment_completed_at"`
	CreatedAt          time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" bson:"updated_at"`
}
