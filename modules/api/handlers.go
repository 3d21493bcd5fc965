package api

import (
	"log"
	"net/url"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Health check
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := app.Group("/api/v1")

	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:id", m.getRoom)
	api.Get("/rooms/:id/state", m.getState)
	api.Get("/rooms/:id/export.pdf", m.exportPDF)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.canvasAdapter.ListRooms(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}

	response := RoomListResponse{
		Rooms: make([]RoomResponse, 0, len(rooms)),
	}
	for _, room := range rooms {
		response.Rooms = append(response.Rooms, RoomResponse{
			RoomSummary: room,
			Connections: m.hub.RoomClientCount(room.ID),
		})
	}

	return c.JSON(response)
}

// getRoom handles GET /api/v1/rooms/:id.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	roomID := c.Params("id")

	room, found, err := m.canvasAdapter.GetRoom(c.UserContext(), roomID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to get room",
		})
	}
	if !found {
		return roomNotFound(c)
	}

	return c.JSON(RoomResponse{
		RoomSummary: room,
		Connections: m.hub.RoomClientCount(room.ID),
	})
}

// getState handles GET /api/v1/rooms/:id/state.
func (m *APIModule) getState(c *fiber.Ctx) error {
	roomID := c.Params("id")

	if ok, err := m.roomExists(c, roomID); !ok {
		return err
	}

	snap, err := m.canvasAdapter.Snapshot(c.UserContext(), roomID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "snapshot_failed",
			Message: "Failed to get room state",
		})
	}

	return c.JSON(StateResponse{
		RoomID:  roomID,
		Strokes: snap.Strokes,
		Seq:     snap.Seq,
	})
}

// exportPDF handles GET /api/v1/rooms/:id/export.pdf.
func (m *APIModule) exportPDF(c *fiber.Ctx) error {
	roomID := c.Params("id")

	if ok, err := m.roomExists(c, roomID); !ok {
		return err
	}

	snap, err := m.canvasAdapter.Snapshot(c.UserContext(), roomID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "snapshot_failed",
			Message: "Failed to get room state",
		})
	}

	doc, err := RenderPDF(roomID, snap)
	if err != nil {
		log.Printf("[api] Failed to render PDF for room %s: %v", roomID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "export_failed",
			Message: "Failed to render room",
		})
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+url.PathEscape(roomID)+`.pdf"`)
	return c.Send(doc)
}

// roomExists writes the error response when the room is missing. The
// returned error is the result of writing that response.
func (m *APIModule) roomExists(c *fiber.Ctx, roomID string) (bool, error) {
	_, found, err := m.canvasAdapter.GetRoom(c.UserContext(), roomID)
	if err != nil {
		return false, c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to get room",
		})
	}
	if !found {
		return false, roomNotFound(c)
	}
	return true, nil
}

func roomNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: "Room not found",
	})
}
