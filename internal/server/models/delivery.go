package models

import "time"

type DeliveryEvent struct {
	ID          string
	TokenID     string
	UserID      string
	ContentID   string
	DeliveredAt time.Time
}
