package progress

import "time"

type AddUpdateDTO struct {
	UpdateText string `json:"update_text"`
}

type UpdateResponse struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Progress  float64   `json:"progress"`
	Analysis  string    `json:"analysis"`
	CreatedAt time.Time `json:"created_at"`
}
