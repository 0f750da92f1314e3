package reports

import (
	"campus-management/app/services/cache"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// InvalidateDashboard drops cached dashboards after a successful write, so fee, expense,
// payroll and indent changes show up before the cache TTL runs out. A branch user clears
// its own branch and the all-branches figure; a super admin may write to any branch and
// clears every dashboard.
func InvalidateDashboard(c cache.Cache) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err != nil || ctx.Method() == fiber.MethodGet || ctx.Method() == fiber.MethodHead ||
			ctx.Response().StatusCode() >= fiber.StatusBadRequest {
			return err
		}

		p := utils.CurrentUser(ctx)
		if p == nil {
			return nil
		}
		prefixes := []string{"dashboard:"}
		if !p.IsSuperAdmin() && p.BranchID != "" {
			prefixes = []string{"dashboard:" + p.BranchID + ":", "dashboard:all:"}
		}
		for _, prefix := range prefixes {
			if derr := c.DeletePrefix(ctx.UserContext(), prefix); derr != nil {
				log.Warn().Err(derr).Str("prefix", prefix).Msg("failed to invalidate dashboard cache")
			}
		}
		return nil
	}
}
