package reports

import (
	"fmt"
	"time"

	"campus-management/app/database"
	"campus-management/app/metrics"
	"campus-management/app/models"
	"campus-management/app/services/cache"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type handler struct {
	db         *sqlx.DB
	cache      cache.Cache
	ttl        time.Duration
	startMonth int
	now        func() time.Time
}

func (h *handler) today() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// CollectionReport is the fee collection between two dates in groups.
type CollectionReport struct {
	From    models.Date             `json:"from"`
	To      models.Date             `json:"to"`
	GroupBy string                  `json:"group_by"`
	Rows    []*models.CollectionRow `json:"rows"`
	Total   models.CollectionRow    `json:"total"`
}

// IndentReport breaks indents down by status.
type IndentReport struct {
	Rows  []*models.IndentStatusRow `json:"rows"`
	Total models.IndentStatusRow    `json:"total"`
}

func dashboardKey(branchID string, month time.Time) string {
	if branchID == "" {
		branchID = "all"
	}
	return fmt.Sprintf("dashboard:%s:%s", branchID, month.Format("2006-01"))
}

// GetDashboardAPI serves this month's headline figures, from cache when possible.
func (h *handler) GetDashboardAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	now := h.today()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	key := dashboardKey(branchID, first)

	var stats models.DashboardStats
	hit, err := h.cache.Get(ctx, key, &stats)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to read dashboard cache")
	}
	metrics.RecordCacheLookup("dashboard", hit)
	if hit {
		c.Set("X-Cache", "HIT")
		return utils.Success(c, "", &stats)
	}

	s, err := database.GetDashboardStats(ctx, h.db, branchID, models.NewDate(first), models.NewDate(first.AddDate(0, 1, -1)))
	if err != nil {
		return err
	}
	if s.OutstandingDues, err = database.TotalDues(ctx, h.db, branchID, models.AcademicYearFor(now, h.startMonth), nil); err != nil {
		return err
	}
	s.GeneratedAt = now.Format(time.RFC3339)

	if err := h.cache.Set(ctx, key, s, h.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache dashboard")
	}
	c.Set("X-Cache", "MISS")
	return utils.Success(c, "", s)
}

func (h *handler) GetFeeCollectionAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	groupBy := c.Query("group_by", GroupByMode)
	if _, ok := collectionGroups[groupBy]; !ok {
		return utils.Invalid("group_by", "group_by must be one of class, mode, day")
	}

	now := h.today()
	from := models.NewDate(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))
	to := models.NewDate(now)
	if d, err := utils.QueryDate(c, "from"); err != nil {
		return err
	} else if d != nil {
		from = *d
	}
	if d, err := utils.QueryDate(c, "to"); err != nil {
		return err
	} else if d != nil {
		to = *d
	}
	if to.Before(from.Time) {
		return utils.Invalid("to", "to must not be before from")
	}

	rows, err := FeeCollection(c.UserContext(), h.db, branchID, groupBy, from, to)
	if err != nil {
		return err
	}
	report := &CollectionReport{From: from, To: to, GroupBy: groupBy, Rows: rows, Total: models.CollectionRow{Key: "total", Label: "Total"}}
	for _, r := range rows {
		report.Total.Payments += r.Payments
		report.Total.Amount += r.Amount
	}
	report.Total.Amount = models.RoundMoney(report.Total.Amount)
	return utils.Success(c, "", report)
}

// GetOutstandingFeesAPI lists students who still owe fees for their academic year.
func (h *handler) GetOutstandingFeesAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	academicYear := c.Query("academic_year")
	if academicYear != "" && !utils.IsAcademicYear(academicYear) {
		return utils.Invalid("academic_year", "academic_year must look like 2024-2025")
	}
	classID, err := utils.QueryID(c, "class_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	dues, total, err := database.ListStudentDues(c.UserContext(), h.db, database.DuesParams{
		BranchID:        branchID,
		ClassID:         classID,
		AcademicYear:    academicYear,
		OnlyOutstanding: true,
		Limit:           page.Limit,
		Offset:          page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, dues, page.Paginate(total))
}

func (h *handler) GetIndentReportAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	status := c.Query("status")
	switch status {
	case "", models.IndentPending, models.IndentIssued, models.IndentPartiallyReturned, models.IndentReturned, models.IndentCancelled:
	default:
		return utils.Invalid("status", "status is not a valid indent status")
	}

	rows, err := IndentsByStatus(c.UserContext(), h.db, branchID, status)
	if err != nil {
		return err
	}
	report := &IndentReport{Rows: rows, Total: models.IndentStatusRow{Status: "total"}}
	for _, r := range rows {
		report.Total.Indents += r.Indents
		report.Total.TotalAmount += r.TotalAmount
		report.Total.AmountPaid += r.AmountPaid
	}
	report.Total.TotalAmount = models.RoundMoney(report.Total.TotalAmount)
	report.Total.AmountPaid = models.RoundMoney(report.Total.AmountPaid)
	return utils.Success(c, "", report)
}
