package payments

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"coursehaven/internal/api/auth"
	"coursehaven/internal/domain/billing"
	"coursehaven/internal/service"
	"coursehaven/internal/service/serverrors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PurchaseProcessor is what this handler needs from the purchase service.
type PurchaseProcessor interface {
	Purchase(ctx context.Context, req service.PurchaseRequest) (*service.PurchaseResult, error)
}

type Handler struct {
	svc PurchaseProcessor
}

func NewHandler(svc PurchaseProcessor) *Handler {
	return &Handler{svc: svc}
}

type processPaymentRequest struct {
	CourseID    uint   `json:"courseId"`
	CardNumber  string `json:"cardNumber"`
	CardHolder  string `json:"cardHolder"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"cvv"`
	PIN         string `json:"pin"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	monthRe = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
	yearRe  = regexp.MustCompile(`^\d{2}$`)
)

func (r *processPaymentRequest) validate() []fieldError {
	var errs []fieldError
	if r.CourseID == 0 {
		errs = append(errs, fieldError{"courseId", "Course ID is required"})
	}
	if len(r.CardNumber) != 16 {
		errs = append(errs, fieldError{"cardNumber", "Card number must be 16 digits"})
	}
	if len(r.CardHolder) < 3 {
		errs = append(errs, fieldError{"cardHolder", "Card holder name is required"})
	}
	if !monthRe.MatchString(r.ExpiryMonth) {
		errs = append(errs, fieldError{"expiryMonth", "Invalid month"})
	}
	if !yearRe.MatchString(r.ExpiryYear) {
		errs = append(errs, fieldError{"expiryYear", "Invalid year"})
	}
	if len(r.CVV) != 3 {
		errs = append(errs, fieldError{"cvv", "CVV must be 3 digits"})
	}
	if len(r.PIN) != 4 {
		errs = append(errs, fieldError{"pin", "PIN must be 4 digits"})
	}
	return errs
}

// POST /api/v1/payment/process
func (h *Handler) ProcessPayment(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"errors": "Unauthorized"})
		return
	}

	var req processPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "malformed JSON body"})
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	result, err := h.svc.Purchase(c.Request.Context(), service.PurchaseRequest{
		UserID:      userID,
		CourseID:    req.CourseID,
		CardNumber:  req.CardNumber,
		CardHolder:  req.CardHolder,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		CVV:         req.CVV,
		PIN:         req.PIN,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// best-effort receipt; never blocks or fails the purchase
	if email := c.GetString("email"); email != "" {
		go auth.SendReceiptEmail(email, result.TransactionID, result.Payment.Amount)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Payment successful",
		"transactionId": result.TransactionID,
		"purchase":      result.Purchase,
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var cardErr *billing.FieldError

	switch {
	case errors.Is(err, serverrors.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"errors": "Course not found"})
	case errors.Is(err, serverrors.ErrAlreadyPurchased):
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Course already purchased"})
	case errors.Is(err, serverrors.ErrCardExpired):
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Card has expired"})
	case errors.Is(err, billing.ErrCardDeclined):
		c.JSON(http.StatusBadRequest, gin.H{"errors": billing.ErrCardDeclined.Error()})
	case errors.As(err, &cardErr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": cardErr.Message})
	default:
		// internal detail stays server-side
		log.Error().Err(err).Uint("user_id", c.GetUint("user_id")).Msg("payment processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "Payment processing failed"})
	}
}
