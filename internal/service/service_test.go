package service

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tukio/config"
	"tukio/internal/database"
	"tukio/internal/domain"
	"tukio/internal/models"
	"tukio/internal/repository"
	"tukio/pkg/mpesa"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// fakeDaraja counts calls to both provider endpoints.
type fakeDaraja struct {
	tokenCalls int32
	pushCalls  int32
	pushBody   string
}

func (f *fakeDaraja) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":"3599"}`))
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.pushCalls, 1)
		_, _ = w.Write([]byte(f.pushBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeDaraja) calls() int32 {
	return atomic.LoadInt32(&f.tokenCalls) + atomic.LoadInt32(&f.pushCalls)
}

func newMpesaClient(baseURL string, httpClient *http.Client) *mpesa.Client {
	auth := mpesa.NewAuthenticator(baseURL, "key", "secret", httpClient, nil, nil)
	return mpesa.NewClient(mpesa.Config{
		BaseURL:     baseURL,
		ShortCode:   "174379",
		PassKey:     "passkey",
		CallbackURL: "https://example.com/api/v1/webhooks/mpesa",
		Location:    time.UTC,
	}, auth, httpClient, nil)
}

func seedEvent(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Event{ID: id, Title: "Launch party", Price: 2999, IsPaid: true}).Error)
}

func seedPending(t *testing.T, db *gorm.DB, checkoutID, eventID, userID string) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		CheckoutRequestID: checkoutID,
		PhoneNumber:       "254712345678",
		Amount:            30,
		Status:            domain.TransactionPending,
		EventID:           eventID,
		UserID:            userID,
	}
	require.NoError(t, repository.NewTransactionRepository(db).Create(tx))
	return tx
}

