package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// StructuredAddress is the object-shaped address payload from the checkout
// form. Older clients send "address" and "pincode" instead of "addressLine1"
// and "pinCode"; both spellings are accepted.
type StructuredAddress struct {
	Name          string `json:"name,omitempty" bson:"name,omitempty"`
	AddressLine1  string `json:"addressLine1,omitempty" bson:"address_line1,omitempty"`
	LegacyAddress string `json:"address,omitempty" bson:"address,omitempty"`
	AddressLine2  string `json:"addressLine2,omitempty" bson:"address_line2,omitempty"`
	City          string `json:"city,omitempty" bson:"city,omitempty"`
	State         string `json:"state,omitempty" bson:"state,omitempty"`
	PinCode       string `json:"pinCode,omitempty" bson:"pin_code,omitempty"`
	LegacyPinCode string `json:"pincode,omitempty" bson:"pincode,omitempty"`
	Phone         string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// Line1 resolves the primary address line across both payload spellings.
func (a StructuredAddress) Line1() string {
	if a.AddressLine1 != "" {
		return a.AddressLine1
	}
	return a.LegacyAddress
}

// Pin resolves the postal code across both payload spellings.
func (a StructuredAddress) Pin() string {
	if a.PinCode != "" {
		return a.PinCode
	}
	return a.LegacyPinCode
}

// AddressInput is the union of the two address shapes clients send: a
// structured object or a freeform comma-separated string. Exactly one side is
// set; both empty means the client sent nothing.
type AddressInput struct {
	Structured *StructuredAddress
	Freeform   string
}

func (a AddressInput) IsZero() bool {
	return a.Structured == nil && a.Freeform == ""
}

func (a AddressInput) MarshalJSON() ([]byte, error) {
	if a.Structured != nil {
		return json.Marshal(a.Structured)
	}
	if a.Freeform != "" {
		return json.Marshal(a.Freeform)
	}
	return []byte("null"), nil
}

func (a *AddressInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &a.Freeform)
	}
	a.Structured = &StructuredAddress{}
	return json.Unmarshal(data, a.Structured)
}

func (a AddressInput) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if a.Structured != nil {
		return bson.MarshalValue(a.Structured)
	}
	return bson.MarshalValue(a.Freeform)
}

func (a *AddressInput) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeString:
		return bson.UnmarshalValue(t, data, &a.Freeform)
	case bson.TypeEmbeddedDocument:
		a.Structured = &StructuredAddress{}
		return bson.UnmarshalValue(t, data, a.Structured)
	case bson.TypeNull:
		return nil
	default:
		return fmt.Errorf("unexpected bson type %s for address", t)
	}
}

// CustomerInput is the raw customer block from the checkout flow. Email is
// stored as sent; no format validation is applied.
type CustomerInput struct {
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	LastName string `json:"lastName,omitempty" bson:"last_name,omitempty"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
	Phone    string `json:"phone,omitempty" bson:"phone,omitempty"`
}
