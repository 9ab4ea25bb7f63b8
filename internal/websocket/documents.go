package websocket

import "github.com/johiruljahid/nsultan/internal/model"

// Entity names used in realtime messages.
const (
	EntityMenuItem = "menu_item"
	EntityGallery  = "gallery_image"
	EntityCategory = "category"
	EntityOrder    = "order"
	EntityBooking  = "booking"
)

// Actions used in realtime messages.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionStatusChanged = "status_changed"
)

// PublishOrder sends the full order to admins and only its id, status and
// version to everyone else, so customer details never reach public clients.
func (h *Hub) PublishOrder(action string, o *model.Order) {
	admin := NewMessage(EntityOrder, action, o.ID, o)
	admin.Version = o.Version
	h.Publish(AudienceAdmin, admin)

	public := NewMessage(EntityOrder, action, o.ID, map[string]any{
		"id":      o.ID,
		"status":  o.Status,
		"version": o.Version,
	})
	public.Version = o.Version
	h.Publish(AudiencePublic, public)
}

// PublishBooking sends a booking to admins only.
func (h *Hub) PublishBooking(action string, b *model.Booking) {
	msg := NewMessage(EntityBooking, action, b.ID, b)
	msg.Version = b.Version
	h.Publish(AudienceAdmin, msg)
}
