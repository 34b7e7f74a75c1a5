package handlers

import (
	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/gin-gonic/gin"
)

// filterFromQuery reads startDate, endDate, category and region. With requireDates
// both dates must be present.
func filterFromQuery(ctx *gin.Context, requireDates bool) (metric.Filter, error) {
	var f metric.Filter

	start := ctx.Query("startDate")
	end := ctx.Query("endDate")

	if requireDates && (start == "" || end == "") {
		return metric.Filter{}, metric.ErrMissingDateRange
	}

	if start != "" {
		d, err := metric.ParseDay(start)
		if err != nil {
			return metric.Filter{}, err
		}
		f.From = &d
	}

	if end != "" {
		d, err := metric.ParseDay(end)
		if err != nil {
			return metric.Filter{}, err
		}
		f.To = &d
	}

	f.Category = metric.OptionalString(ctx.Query("category"))
	f.Region = metric.OptionalString(ctx.Query("region"))

	return f, nil
}
