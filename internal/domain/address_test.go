package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressInput_UnmarshalJSON_Object(t *testing.T) {
	var addr AddressInput
	err := json.Unmarshal([]byte(`{"addressLine1":"12 Park Rd","city":"Pune","pinCode":"411001"}`), &addr)
	require.NoError(t, err)
	require.NotNil(t, addr.Structured)
	assert.Equal(t, "12 Park Rd", addr.Structured.Line1())
	assert.Equal(t, "411001", addr.Structured.Pin())
	assert.Empty(t, addr.Freeform)
}

func TestAddressInput_UnmarshalJSON_LegacyFields(t *testing.T) {
	var addr AddressInput
	err := json.Unmarshal([]byte(`{"address":"Old Street 5","pincode":"335513"}`), &addr)
	require.NoError(t, err)
	require.NotNil(t, addr.Structured)
	assert.Equal(t, "Old Street 5", addr.Structured.Line1())
	assert.Equal(t, "335513", addr.Structured.Pin())
}

func TestAddressInput_UnmarshalJSON_String(t *testing.T) {
	var addr AddressInput
	err := json.Unmarshal([]byte(`"12 Park Rd, Near Lake, Pune, MH, 411001"`), &addr)
	require.NoError(t, err)
	assert.Nil(t, addr.Structured)
	assert.Equal(t, "12 Park Rd, Near Lake, Pune, MH, 411001", addr.Freeform)
}

func TestAddressInput_UnmarshalJSON_Null(t *testing.T) {
	var addr AddressInput
	err := json.Unmarshal([]byte(`null`), &addr)
	require.NoError(t, err)
	assert.True(t, addr.IsZero())
}

func TestAddressInput_JSONRoundTrip(t *testing.T) {
	in := AddressInput{Structured: &StructuredAddress{AddressLine1: "A1", City: "C", PinCode: "560001"}}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out AddressInput
	require.NoError(t, json.Unmarshal(data, &out))
	require.NotNil(t, out.Structured)
	assert.Equal(t, "A1", out.Structured.AddressLine1)
	assert.Equal(t, "560001", out.Structured.PinCode)
}

func TestPaymentStatus_Transitions(t *testing.T) {
	assert.True(t, PaymentStatusInitiated.CanTransitionTo(PaymentStatusPending))
	assert.True(t, PaymentStatusInitiated.CanTransitionTo(PaymentStatusCompleted))
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusPending))
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusFailed))
	assert.False(t, PaymentStatusCompleted.CanTransitionTo(PaymentStatusPending))
	assert.False(t, PaymentStatusFailed.CanTransitionTo(PaymentStatusCompleted))
	assert.True(t, PaymentStatusCompleted.IsTerminal())
	assert.False(t, PaymentStatusPending.IsTerminal())
}
