package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coursehaven/internal/domain/billing"
	"coursehaven/internal/domain/purchases"
	"coursehaven/internal/service"
	"coursehaven/internal/service/serverrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	result *service.PurchaseResult
	err    error

	gotReq service.PurchaseRequest
	calls  int
}

func (s *stubProcessor) Purchase(ctx context.Context, req service.PurchaseRequest) (*service.PurchaseResult, error) {
	s.calls++
	s.gotReq = req
	return s.result, s.err
}

func validBody() map[string]any {
	return map[string]any{
		"courseId":    42,
		"cardNumber":  "4111111111111111",
		"cardHolder":  "JOHN DOE",
		"expiryMonth": "12",
		"expiryYear":  "28",
		"cvv":         "123",
		"pin":         "1234",
	}
}

func performPayment(t *testing.T, svc PurchaseProcessor, userID uint, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/payment/process", func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
		}
		NewHandler(svc).ProcessPayment(c)
	})

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/payment/process", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProcessPaymentSuccess(t *testing.T) {
	stub := &stubProcessor{
		result: &service.PurchaseResult{
			TransactionID: "TXN1718000000000ABCDEF1234",
			Payment:       &billing.Payment{Amount: 499, Status: billing.StatusSuccess},
			Purchase:      &purchases.Purchase{ID: 1, UserID: 7, CourseID: 42},
		},
	}

	w := performPayment(t, stub, 7, validBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message       string             `json:"message"`
		TransactionID string             `json:"transactionId"`
		Purchase      purchases.Purchase `json:"purchase"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Payment successful", resp.Message)
	assert.Equal(t, stub.result.TransactionID, resp.TransactionID)
	assert.Equal(t, uint(42), resp.Purchase.CourseID)

	// user identity comes from the auth context, never the body
	assert.Equal(t, uint(7), stub.gotReq.UserID)
	assert.Equal(t, uint(42), stub.gotReq.CourseID)
}

func TestProcessPaymentUnauthorized(t *testing.T) {
	stub := &stubProcessor{}

	w := performPayment(t, stub, 0, validBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, stub.calls)
}

func TestProcessPaymentValidationErrors(t *testing.T) {
	stub := &stubProcessor{}

	body := validBody()
	body["cardNumber"] = "1234"
	body["expiryMonth"] = "13"

	w := performPayment(t, stub, 7, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, stub.calls)

	var resp struct {
		Errors []fieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	fields := map[string]string{}
	for _, fe := range resp.Errors {
		fields[fe.Field] = fe.Message
	}
	assert.Contains(t, fields, "cardNumber")
	assert.Contains(t, fields, "expiryMonth")
	assert.NotContains(t, fields, "cvv")
}

func TestProcessPaymentCourseNotFound(t *testing.T) {
	stub := &stubProcessor{err: serverrors.ErrCourseNotFound}

	w := performPayment(t, stub, 7, validBody())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"errors":"Course not found"}`, w.Body.String())
}

func TestProcessPaymentAlreadyPurchased(t *testing.T) {
	stub := &stubProcessor{err: serverrors.ErrAlreadyPurchased}

	w := performPayment(t, stub, 7, validBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":"Course already purchased"}`, w.Body.String())
}

func TestProcessPaymentDeclinedCard(t *testing.T) {
	stub := &stubProcessor{err: billing.ErrCardDeclined}

	w := performPayment(t, stub, 7, validBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":"Invalid card number"}`, w.Body.String())
}

func TestProcessPaymentExpiredCard(t *testing.T) {
	stub := &stubProcessor{err: serverrors.ErrCardExpired}

	w := performPayment(t, stub, 7, validBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":"Card has expired"}`, w.Body.String())
}

func TestProcessPaymentInternalErrorIsOpaque(t *testing.T) {
	stub := &stubProcessor{err: context.DeadlineExceeded}

	w := performPayment(t, stub, 7, validBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"errors":"Payment processing failed"}`, w.Body.String())
}
