package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const defaultRunsLimit = 10

var validate = validator.New()

// RunHistory is the read side of the run-report store.
type RunHistory interface {
	Latest() (weather.RunReport, error)
	Recent(limit int) ([]weather.RunReport, error)
}

// RecordReader reads the last record saved for a city.
type RecordReader interface {
	Load(city string) (weather.Record, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, history RunHistory, records RecordReader) {
	v1 := app.Group("/api/v1")

	v1.Get("/runs/latest", func(c *fiber.Ctx) error {
		report, err := history.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no runs recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest run")
		}

		return c.JSON(report)
	})

	v1.Get("/runs", func(c *fiber.Ctx) error {
		var req runsQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reports, err := history.Recent(req.Limit)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch runs")
		}
		if reports == nil {
			reports = []weather.RunReport{}
		}

		return c.JSON(fiber.Map{
			"limit": req.Limit,
			"runs":  reports,
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q := cityQuery{City: c.Query("city")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := records.Load(q.City)
		if err != nil {
			if errors.Is(err, store.ErrInvalidCity) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather data")
		}

		return c.JSON(fiber.Map{
			"city":   q.City,
			"record": rec,
		})
	})
}

// cityQuery holds query parameters for identifying a city.
type cityQuery struct {
	City string `validate:"required"`
}

// runsQuery holds query parameters for the runs endpoint.
type runsQuery struct {
	Limit int `validate:"min=1,max=100"`
}

func (r *runsQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("limit")
	if raw == "" {
		r.Limit = defaultRunsLimit
		return nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("limit must be an integer")
	}
	r.Limit = limit
	return nil
}
