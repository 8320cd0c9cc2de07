package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSTKCallbackSuccess(t *testing.T) {
	payload := []byte(`{
	  "Body": {
	    "stkCallback": {
	      "MerchantRequestID": "29115-34620561-1",
	      "CheckoutRequestID": "ws_CO_191220191020363925",
	      "ResultCode": 0,
	      "ResultDesc": "The service request is processed successfully.",
	      "CallbackMetadata": {
	        "Item": [
	          {"Name": "Amount", "Value": 30.00},
	          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
	          {"Name": "TransactionDate", "Value": 20191219102115},
	          {"Name": "PhoneNumber", "Value": 254708374149}
	        ]
	      }
	    }
	  }
	}`)
	cb, err := ParseSTKCallback(payload)
	require.NoError(t, err)
	assert.True(t, cb.Success())
	assert.Equal(t, "ws_CO_191220191020363925", cb.CheckoutRequestID)
	assert.Equal(t, "29115-34620561-1", cb.MerchantRequestID)
	assert.Equal(t, 30.0, cb.Amount)
	assert.Equal(t, "NLJ7RT61SV", cb.ReceiptNumber)
	assert.Equal(t, "20191219102115", cb.TransactionDate)
	assert.Equal(t, "254708374149", cb.PhoneNumber)
}

func TestParseSTKCallbackCancelled(t *testing.T) {
	payload := []byte(`{"Body":{"stkCallback":{"MerchantRequestID":"1","CheckoutRequestID":"ws_CO_1","ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`)
	cb, err := ParseSTKCallback(payload)
	require.NoError(t, err)
	assert.False(t, cb.Success())
	assert.Equal(t, 1032, cb.ResultCode)
	assert.Equal(t, "Request cancelled by user", cb.ResultDesc)
	assert.Empty(t, cb.ReceiptNumber)
}

func TestParseSTKCallbackFlat(t *testing.T) {
	cb, err := ParseSTKCallback([]byte(`{"CheckoutRequestID":"abc","ResultCode":0}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", cb.CheckoutRequestID)
	assert.True(t, cb.Success())

	cb, err = ParseSTKCallback([]byte(`{"CheckoutRequestID":"abc","ResultCode":"1"}`))
	require.NoError(t, err)
	assert.False(t, cb.Success())
}

func TestParseSTKCallbackInvalid(t *testing.T) {
	for _, payload := range []string{
		`not json`,
		`{}`,
		`{"Body":{"stkCallback":{"ResultCode":0}}}`,
		`{"CheckoutRequestID":"abc"}`,
		`{"CheckoutRequestID":"abc","ResultCode":"x"}`,
	} {
		_, err := ParseSTKCallback([]byte(payload))
		assert.ErrorIs(t, err, ErrInvalidCallback, payload)
	}
}
