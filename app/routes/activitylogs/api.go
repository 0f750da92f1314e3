package activitylogs

import (
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

type handler struct {
	db *sqlx.DB
}

// GetLogsAPI lists activity newest first. Callers outside the super admin role
// only see their own branch.
func (h *handler) GetLogsAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	from, err := utils.QueryDate(c, "from")
	if err != nil {
		return err
	}
	to, err := utils.QueryDate(c, "to")
	if err != nil {
		return err
	}
	if from != nil && to != nil && to.Before(from.Time) {
		return utils.Invalid("to", "to must not be before from")
	}
	userID, err := utils.QueryID(c, "user_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	logs, total, err := ListLogs(c.UserContext(), h.db, ListParams{
		BranchID: branchID,
		Module:   c.Query("module"),
		Action:   c.Query("action"),
		UserID:   userID,
		EntityID: c.Query("entity_id"),
		From:     from,
		To:       to,
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, logs, page.Paginate(total))
}
