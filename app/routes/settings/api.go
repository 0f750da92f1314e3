package settings

import (
	"fmt"
	"strings"

	"campus-management/app/models"
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type handler struct {
	db    *sqlx.DB
	audit activity.Logger
}

type ReceiptConfigRequest struct {
	BranchID      string `json:"branch_id"`
	SchoolName    string `json:"school_name" validate:"max=255"`
	Address       string `json:"address" validate:"max=1000"`
	Phone         string `json:"phone" validate:"max=30"`
	Email         string `json:"email" validate:"omitempty,email"`
	LogoURL       string `json:"logo_url" validate:"omitempty,url"`
	HeaderText    string `json:"header_text" validate:"max=1000"`
	FooterText    string `json:"footer_text" validate:"max=1000"`
	ReceiptPrefix string `json:"receipt_prefix" validate:"max=20"`
	NextNumber    int64  `json:"next_number" validate:"gte=0"`
	NumberPadding *int   `json:"number_padding" validate:"omitempty,min=0,max=12"`
}

// ReceiptConfigResponse adds the number the next payment will be given.
type ReceiptConfigResponse struct {
	*models.ReceiptConfig
	NextReceiptNo string `json:"next_receipt_no"`
}

func (h *handler) GetReceiptConfigAPI(c *fiber.Ctx) error {
	branchID, err := utils.WriteBranch(c, "")
	if err != nil {
		return err
	}
	cfg, err := GetReceiptConfig(c.UserContext(), h.db, branchID)
	if err != nil {
		return err
	}
	return utils.Success(c, "", ReceiptConfigResponse{ReceiptConfig: cfg, NextReceiptNo: cfg.Preview()})
}

func (h *handler) SaveReceiptConfigAPI(c *fiber.Ctx) error {
	var req ReceiptConfigRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	current, err := GetReceiptConfig(c.UserContext(), h.db, branchID)
	if err != nil {
		return err
	}

	cfg := &models.ReceiptConfig{
		ID:            current.ID,
		BranchID:      branchID,
		SchoolName:    strings.TrimSpace(req.SchoolName),
		Address:       strings.TrimSpace(req.Address),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		LogoURL:       strings.TrimSpace(req.LogoURL),
		HeaderText:    req.HeaderText,
		FooterText:    req.FooterText,
		ReceiptPrefix: strings.TrimSpace(req.ReceiptPrefix),
		NextNumber:    current.NextNumber,
		NumberPadding: current.NumberPadding,
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.ReceiptPrefix == "" {
		cfg.ReceiptPrefix = models.DefaultReceiptPrefix
	}
	if req.NumberPadding != nil {
		cfg.NumberPadding = *req.NumberPadding
	}
	// Lowering the sequence would hand out receipt numbers that already exist.
	if req.NextNumber != 0 {
		if req.NextNumber < current.NextNumber {
			return utils.Invalid("next_number", fmt.Sprintf("next_number cannot be lower than %d", current.NextNumber))
		}
		cfg.NextNumber = req.NextNumber
	}

	if err := SaveReceiptConfig(c.UserContext(), h.db, cfg); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleReceipts,
		Action:      models.ActionUpdate,
		EntityID:    cfg.ID,
		Description: "Updated receipt configuration",
		Metadata: models.Metadata{
			"receipt_prefix": cfg.ReceiptPrefix,
			"next_number":    cfg.NextNumber,
		},
	})
	return utils.Success(c, "Receipt configuration saved", ReceiptConfigResponse{ReceiptConfig: cfg, NextReceiptNo: cfg.Preview()})
}
