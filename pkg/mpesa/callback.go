package mpesa

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidCallback is returned when a callback body cannot be trusted as an STK result.
var ErrInvalidCallback = errors.New("mpesa: invalid stk callback")

type callbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

type stkCallbackBody struct {
	MerchantRequestID string      `json:"MerchantRequestID"`
	CheckoutRequestID string      `json:"CheckoutRequestID"`
	ResultCode        json.Number `json:"ResultCode"`
	ResultDesc        string      `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []callbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// stkCallbackEnvelope is the Daraja shape; the flat fields are accepted too.
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback *stkCallbackBody `json:"stkCallback"`
	} `json:"Body"`
	stkCallbackBody
}

// STKCallback is a validated STK push result.
type STKCallback struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Amount            float64
	ReceiptNumber     string
	TransactionDate   string
	PhoneNumber       string
}

// Success reports whether the customer authorised the payment.
func (c *STKCallback) Success() bool { return c.ResultCode == 0 }

// ParseSTKCallback decodes and validates a callback payload.
func ParseSTKCallback(payload []byte) (*STKCallback, error) {
	var env stkCallbackEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	body := env.Body.StkCallback
	if body == nil {
		body = &env.stkCallbackBody
	}
	if body.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID", ErrInvalidCallback)
	}
	if body.ResultCode == "" {
		return nil, fmt.Errorf("%w: missing ResultCode", ErrInvalidCallback)
	}
	code, err := strconv.Atoi(body.ResultCode.String())
	if err != nil {
		return nil, fmt.Errorf("%w: ResultCode %q", ErrInvalidCallback, body.ResultCode)
	}
	out := &STKCallback{
		MerchantRequestID: body.MerchantRequestID,
		CheckoutRequestID: body.CheckoutRequestID,
		ResultCode:        code,
		ResultDesc:        body.ResultDesc,
	}
	for _, item := range body.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			if v, ok := item.Value.(float64); ok {
				out.Amount = v
			}
		case "MpesaReceiptNumber":
			out.ReceiptNumber = stringValue(item.Value)
		case "TransactionDate":
			out.TransactionDate = stringValue(item.Value)
		case "PhoneNumber":
			out.PhoneNumber = stringValue(item.Value)
		}
	}
	return out, nil
}

// Daraja sends TransactionDate and PhoneNumber as JSON numbers.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
