package wire

import (
	"facility-booking/internal/adaptor"
	"facility-booking/pkg/middleware"
	"facility-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	// Requester or admin; ownership is checked per reservation by the service
	r.Route("/api/reservations", func(r chi.Router) {
		r.Use(middleware.AuthJWT(config.Auth, log))

		// POST /api/reservations - Request a time range on a facility
		r.Post("/", reservationHandler.CreateReservation)

		// GET /api/reservations - Own reservations (admin sees all)
		r.Get("/", reservationHandler.ListReservations)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", reservationHandler.GetReservation)

			// PATCH /api/reservations/{id} - Edit notes or group while pending
			r.Patch("/", reservationHandler.UpdateReservation)

			// DELETE /api/reservations/{id} - Remove a cancelled reservation
			r.Delete("/", reservationHandler.DeleteReservation)

			r.Put("/confirm", reservationHandler.ConfirmReservation)
			r.Put("/cancel", reservationHandler.CancelReservation)
		})
	})

	// ==================== ADMIN ROUTES ====================
	// Facility operators reviewing every requester's reservations
	r.Route("/api/admin/reservations", func(r chi.Router) {
		r.Use(middleware.AuthJWT(config.Auth, log))
		r.Use(middleware.Admin(log))

		// GET /api/admin/reservations?facility_id=&status=&date_from=&date_to=
		r.Get("/", reservationHandler.ListReservations)

		// PUT /api/admin/reservations/{id}/confirm - Approve a pending request
		r.Put("/{id}/confirm", reservationHandler.ConfirmReservation)
	})
}
