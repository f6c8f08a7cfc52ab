package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

type referralService interface {
	ListPending(ctx context.Context) (*service.PendingReferrals, error)
	ConfirmCase(ctx context.Context, id int64) (*models.ConfirmResult, error)
	ConfirmMedical(ctx context.Context, id int64) (*models.ConfirmResult, error)
}

// ReferralHandler exposes the pending-referral listing and the guidance-side
// confirmation endpoints.
type ReferralHandler struct {
	service referralService
}

// NewReferralHandler constructs the referral handler.
func NewReferralHandler(service referralService) *ReferralHandler {
	return &ReferralHandler{service: service}
}

// ListPending returns every referral still awaiting confirmation, case
// records first, with per-source counts.
func (h *ReferralHandler) ListPending(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "referral service not configured"))
		return
	}
	pending, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":            true,
		"referrals":          pending.Referrals,
		"count":              len(pending.Referrals),
		"caseRecordCount":    pending.CaseCount,
		"medicalRecordCount": pending.MedicalCount,
	})
}

// ConfirmCase accepts a pending case referral.
func (h *ReferralHandler) ConfirmCase(c *gin.Context) {
	h.confirm(c, func(ctx context.Context, id int64) (*models.ConfirmResult, error) {
		return h.service.ConfirmCase(ctx, id)
	})
}

// ConfirmMedical accepts a pending medical referral.
func (h *ReferralHandler) ConfirmMedical(c *gin.Context) {
	h.confirm(c, func(ctx context.Context, id int64) (*models.ConfirmResult, error) {
		return h.service.ConfirmMedical(ctx, id)
	})
}

func (h *ReferralHandler) confirm(c *gin.Context, confirmFn func(context.Context, int64) (*models.ConfirmResult, error)) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "referral service not configured"))
		return
	}
	id, err := recordID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := confirmFn(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	body := gin.H{
		"success":            true,
		"message":            result.Message,
		"counselingRecordId": result.CounselingRecordID,
	}
	// a set warning means the confirmation committed but the counseling
	// record insert failed; the caller inspects the payload, not the status
	if result.Warning != "" {
		body["warning"] = result.Warning
		delete(body, "counselingRecordId")
	}
	response.JSON(c, http.StatusOK, body)
}
