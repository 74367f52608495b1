package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sefazor/festival-backend/internal/models"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Event        *EventHandler
	Team         *TeamHandler
	Registration *RegistrationHandler
	Payment      *PaymentHandler
	Admin        *AdminHandler
	User         *UserHandler
}

// RegisterRoutes mounts the public catalog, the participant routes behind
// auth and the admin routes behind auth and admin.
func RegisterRoutes(api fiber.Router, h *Handlers, auth, admin fiber.Handler) {
	// Public catalog
	api.Get("/events", h.Event.ListEvents)
	api.Get("/events/:id", h.Event.GetEvent)
	api.Get("/mun-events", h.Event.ListMUNEvents)
	api.Get("/mun-events/:id", h.Event.GetMUNEvent)

	// Participants
	api.Get("/me", auth, h.User.GetMyProfile)
	api.Get("/me/registrations", auth, h.Registration.MyRegistrations)
	api.Post("/events/:id/register", auth, h.Registration.RegisterSolo)
	api.Post("/events/:id/teams", auth, h.Team.CreateTeam)
	api.Post("/mun-events/:id/register", auth, h.Registration.RegisterMUN)
	api.Post("/teams/join", auth, h.Team.JoinTeam)
	api.Get("/teams/:id", auth, h.Team.GetTeam)
	api.Get("/teams/:id/qr", auth, h.Team.JoinQR)
	api.Post("/registrations/:id/payment-proof", auth, h.Payment.SubmitProof)

	// Admin
	adm := api.Group("/admin", auth, admin)

	adm.Post("/events", h.Event.CreateEvent)
	adm.Post("/events/:id/close", h.Event.SetRegistrationOpen(models.EventKindStandard, false))
	adm.Post("/events/:id/open", h.Event.SetRegistrationOpen(models.EventKindStandard, true))
	adm.Put("/events/:id/fee", h.Event.UpdateFee(models.EventKindStandard))

	adm.Post("/mun-events", h.Event.CreateMUNEvent)
	adm.Post("/mun-events/:id/close", h.Event.SetRegistrationOpen(models.EventKindMUN, false))
	adm.Post("/mun-events/:id/open", h.Event.SetRegistrationOpen(models.EventKindMUN, true))
	adm.Put("/mun-events/:id/fee", h.Event.UpdateFee(models.EventKindMUN))

	adm.Get("/registrations", h.Admin.ListRegistrations)
	adm.Get("/registrations/stats", h.Admin.Stats)
	adm.Get("/registrations/export", h.Admin.Export)
	adm.Patch("/registrations/status", h.Admin.BulkSetStatus)
	adm.Patch("/registrations/:id/status", h.Admin.SetStatus)
	adm.Get("/teams/:id/members", h.Admin.TeamMembers)
}
