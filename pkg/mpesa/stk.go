package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// STKPushRequest is the Lipa Na M-Pesa Online request body.
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the synchronous acknowledgment. It means the prompt was
// sent to the handset, not that the customer paid.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type errorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// PushRequest is what callers supply; the client adds signing material.
type PushRequest struct {
	PhoneNumber      string // already normalized
	Amount           int64  // whole shillings
	AccountReference string
	Description      string
}

// STKPush acquires a token, signs and sends the push. Token acquisition
// strictly precedes signing, and one timestamp is used for both the
// password and the body.
func (c *Client) STKPush(ctx context.Context, req PushRequest) (*STKPushResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("mpesa: amount must be positive, got %d", req.Amount)
	}
	c.logger.Debug("stk push stage", zap.String("stage", "acquiring-token"))
	tok, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("stk push stage", zap.String("stage", "signing"))
	timestamp := Timestamp(c.now(), c.cfg.Location)
	body := STKPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.PassKey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   c.cfg.TransactionType,
		Amount:            req.Amount,
		PartyA:            req.PhoneNumber,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("stk push stage", zap.String("stage", "pushing"),
		zap.String("account_reference", req.AccountReference), zap.Int64("amount", req.Amount))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+tok.Value)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Op: "stkpush", Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "stkpush", Err: err}
	}

	c.logger.Debug("stk push stage", zap.String("stage", "awaiting-provider-ack"), zap.Int("status", resp.StatusCode))
	if resp.StatusCode == http.StatusUnauthorized {
		c.auth.Invalidate(ctx)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseProviderError(resp.StatusCode, respBody)
	}
	var out STKPushResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Description: "malformed response: " + truncate(respBody, 128)}
	}
	if err := out.validate(); err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			pe.StatusCode = resp.StatusCode
		}
		return nil, err
	}
	return &out, nil
}

func (r *STKPushResponse) validate() error {
	if r.ResponseCode != "0" {
		desc := r.ResponseDescription
		if desc == "" {
			desc = "request not accepted"
		}
		return &ProviderError{Code: r.ResponseCode, Description: desc}
	}
	if r.CheckoutRequestID == "" {
		return &ProviderError{Code: r.ResponseCode, Description: "missing CheckoutRequestID"}
	}
	return nil
}

func parseProviderError(status int, body []byte) error {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && (e.ErrorCode != "" || e.ErrorMessage != "") {
		return &ProviderError{StatusCode: status, Code: e.ErrorCode, Description: e.ErrorMessage}
	}
	var r STKPushResponse
	if err := json.Unmarshal(body, &r); err == nil && r.ResponseDescription != "" {
		return &ProviderError{StatusCode: status, Code: r.ResponseCode, Description: r.ResponseDescription}
	}
	return &ProviderError{StatusCode: status, Description: http.StatusText(status)}
}
