package handler

import (
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// period reads ?from= and ?to= as YYYY-MM-DD, defaulting to the last 30 days.
func period(c *fiber.Ctx) (service.Period, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, err := dateQuery(c, "from", today.AddDate(0, 0, -30))
	if err != nil {
		return service.Period{}, err
	}
	to, err := dateQuery(c, "to", today)
	if err != nil {
		return service.Period{}, err
	}
	return service.Period{From: from, To: to}, nil
}

func (a *API) reportRoutes(r fiber.Router, can func(string) fiber.Handler) {
	r.Get("/dashboard/stats", can(model.PrivDashboardView), handle[service.GetDashboardStats, *repository.DashboardStats](a, fiber.StatusOK, nil))
	r.Get("/dashboard/stock-chart", can(model.PrivDashboardView), handle[service.GetStockMovementChart, []repository.StockMovementData](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetStockMovementChart) error {
			q.Days = c.QueryInt("days", 7)
			return nil
		}))

	r.Get("/reports/sales", can(model.PrivReportView), handle[service.SalesReport, []repository.SalesRow](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.SalesReport) (err error) {
			q.GroupBy = c.Query("group_by", "month")
			q.Period, err = period(c)
			return err
		}))
	r.Get("/reports/margins", can(model.PrivReportView), handle[service.MarginReport, []repository.MarginRow](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.MarginReport) (err error) {
			q.Period, err = period(c)
			return err
		}))
	r.Get("/reports/stock-valuation", can(model.PrivReportView), handle[service.StockValuationReport, []repository.StockValuationRow](a, fiber.StatusOK, nil))
	r.Get("/reports/customers", can(model.PrivReportView), handle[service.CustomerReport, []repository.CustomerRow](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.CustomerReport) (err error) {
			q.Period, err = period(c)
			return err
		}))
	r.Get("/reports/purchases", can(model.PrivReportView), handle[service.PurchaseReport, []repository.PurchaseRow](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.PurchaseReport) (err error) {
			q.Period, err = period(c)
			return err
		}))

	r.Get("/reports/fec", can(model.PrivReportExport), download(a, func(c *fiber.Ctx, q *service.ExportFEC) (err error) {
		q.SIREN = a.siren
		q.Period, err = period(c)
		return err
	}))
	r.Get("/reports/:report/export", can(model.PrivReportExport), download(a, func(c *fiber.Ctx, q *service.ExportReport) (err error) {
		q.Report = c.Params("report")
		q.Format = c.Query("format", "csv")
		q.GroupBy = c.Query("group_by", "month")
		q.Period, err = period(c)
		return err
	}))
}
