package session

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Rayane-45/Horsly-sub001/internal/db"
	"github.com/Rayane-45/Horsly-sub001/internal/sensor"
	"github.com/Rayane-45/Horsly-sub001/internal/stream"
)

// Service wires trackers, their sensors and the persistence store together
// for the HTTP layer.
type Service struct {
	store       Store
	hub         *stream.Hub
	registry    *Registry
	fallbackLat float64
	fallbackLng float64
}

func NewService(q db.Querier, hub *stream.Hub, fallbackLat, fallbackLng float64) *Service {
	svc := &Service{
		hub:         hub,
		registry:    NewRegistry(),
		fallbackLat: fallbackLat,
		fallbackLng: fallbackLng,
	}
	if q != nil {
		svc.store = NewPGStore(q)
	}
	return svc
}

// Prepare creates a PREP session and starts fix acquisition for it. The
// acquisition outlives the request, so it runs on the background context.
func (s *Service) Prepare(cfg Config) *Tracker {
	src := sensor.NewPushSource()
	ctrl := sensor.NewController(src, s.fallbackLat, s.fallbackLng)
	ctrl.Start(context.Background())
	tracker := NewTracker(cfg, ctrl, s.hub, s.store)
	s.registry.Add(&Entry{Tracker: tracker, Source: src})
	return tracker
}

func (s *Service) Registry() *Registry { return s.registry }

type fixRequest struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	AccuracyM float64   `json:"accuracy_m"`
	SpeedKmh  *float64  `json:"speed_kmh"`
	Timestamp time.Time `json:"timestamp"`
}

type saveRequest struct {
	Notes string `json:"notes"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	entryOr404 := func(c *fiber.Ctx) (*Entry, error) {
		entry, ok := svc.registry.Get(c.Params("id"))
		if !ok {
			return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return entry, nil
	}

	transition := func(apply func(*Tracker) error) fiber.Handler {
		return func(c *fiber.Ctx) error {
			entry, err := entryOr404(c)
			if err != nil {
				return err
			}
			if err := apply(entry.Tracker); err != nil {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return c.JSON(entry.Tracker.Snapshot())
		}
	}

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var cfg Config
		if err := c.BodyParser(&cfg); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		tracker := svc.Prepare(cfg)
		return c.Status(fiber.StatusCreated).JSON(tracker.Snapshot())
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		entries := svc.registry.All()
		snaps := make([]Snapshot, 0, len(entries))
		for _, e := range entries {
			snaps = append(snaps, e.Tracker.Snapshot())
		}
		return c.JSON(snaps)
	})

	r.Get("/history", authMiddleware, func(c *fiber.Ctx) error {
		if svc.store == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, ErrNoStore.Error())
		}
		horseID := c.Query("horse_id")
		if horseID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "horse_id required")
		}
		summaries, err := svc.store.ListSummaries(c.Context(), horseID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(summaries)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		entry, err := entryOr404(c)
		if err != nil {
			return err
		}
		return c.JSON(entry.Tracker.Snapshot())
	})

	r.Post("/:id/fixes", authMiddleware, func(c *fiber.Ctx) error {
		entry, err := entryOr404(c)
		if err != nil {
			return err
		}
		var req fixRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		accepted := entry.Source.Push(sensor.Fix{
			Lat:       req.Lat,
			Lng:       req.Lng,
			AccuracyM: req.AccuracyM,
			Source:    sensor.SourceSensor,
			Timestamp: req.Timestamp,
			SpeedKmh:  req.SpeedKmh,
		})
		if !accepted {
			return fiber.NewError(fiber.StatusServiceUnavailable, "fix rejected")
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/:id/refresh", authMiddleware, func(c *fiber.Ctx) error {
		entry, err := entryOr404(c)
		if err != nil {
			return err
		}
		entry.Tracker.Controller().Refresh(context.Background())
		return c.JSON(entry.Tracker.Snapshot())
	})

	r.Post("/:id/launch", authMiddleware, func(c *fiber.Ctx) error {
		entry, err := entryOr404(c)
		if err != nil {
			return err
		}
		if unmet := entry.Tracker.Launch(); len(unmet) > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"unmet": unmet})
		}
		return c.JSON(entry.Tracker.Snapshot())
	})

	r.Post("/:id/pause", authMiddleware, transition((*Tracker).Pause))
	r.Post("/:id/resume", authMiddleware, transition((*Tracker).Resume))
	r.Post("/:id/stop", authMiddleware, transition((*Tracker).Stop))

	r.Post("/:id/save", authMiddleware, func(c *fiber.Ctx) error {
		entry, err := entryOr404(c)
		if err != nil {
			return err
		}
		var req saveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		summary, err := entry.Tracker.Save(c.Context(), req.Notes)
		if err != nil {
			if errors.Is(err, ErrSaveInFlight) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(summary)
	})

	r.Post("/:id/discard", authMiddleware, func(c *fiber.Ctx) error {
		entry, err := entryOr404(c)
		if err != nil {
			return err
		}
		if err := entry.Tracker.Discard(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		svc.registry.Remove(entry.Tracker.ID())
		return c.JSON(fiber.Map{"state": StateDiscarded})
	})

	r.Post("/:id/cancel", authMiddleware, func(c *fiber.Ctx) error {
		entry, err := entryOr404(c)
		if err != nil {
			return err
		}
		if err := entry.Tracker.Cancel(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		svc.registry.Remove(entry.Tracker.ID())
		return c.JSON(fiber.Map{"state": StateDiscarded})
	})

	r.Get("/:id/export.gpx", func(c *fiber.Ctx) error {
		entry, err := entryOr404(c)
		if err != nil {
			return err
		}
		data, err := entry.Tracker.ExportGPX()
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		return c.Send(data)
	})

	r.Get("/:id/export.fit", func(c *fiber.Ctx) error {
		entry, err := entryOr404(c)
		if err != nil {
			return err
		}
		data, err := entry.Tracker.ExportFIT()
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/octet-stream")
		return c.Send(data)
	})
}
