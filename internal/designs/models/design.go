package models

import (
	"encoding/json"

	"designmate/internal/scene"
)

// ============================================================
// Design Model
// ============================================================

// Design is a saved 2D plan or 3D room. Objects and room settings are
// stored as sent by the editor.
type Design struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	Type       scene.Mode `json:"type"`
	IsPublic   bool       `json:"isPublic"`
	CreatedAt  string     `json:"createdAt"`
	DesignData DesignData `json:"designData"`
}

type DesignData struct {
	Objects    json.RawMessage `json:"objects"`
	Background string          `json:"background,omitempty"`
	scene.RoomMeta
}

// VisibleTo reports whether userID may read the design.
func (d *Design) VisibleTo(userID string) bool {
	return d.IsPublic || (userID != "" && d.UserID == userID)
}
