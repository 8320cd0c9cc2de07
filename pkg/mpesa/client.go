package mpesa

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	SandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	ProductionBaseURL = "https://api.safaricom.co.ke"

	// TransactionTypePayBill is the only transaction type this client sends by default.
	TransactionTypePayBill = "CustomerPayBillOnline"
)

// Config carries the signing material and endpoints for STK push.
type Config struct {
	BaseURL         string
	ShortCode       string
	PassKey         string
	CallbackURL     string
	TransactionType string
	Location        *time.Location
}

// Client talks to the Daraja STK push API.
type Client struct {
	cfg        Config
	auth       *Authenticator
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

func NewClient(cfg Config, auth *Authenticator, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = SandboxBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TransactionType == "" {
		cfg.TransactionType = TransactionTypePayBill
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		auth:       auth,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}
