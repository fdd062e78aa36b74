package model

import "time"

type User struct {
	Id           int64
	Username     string
	RegisteredAt time.Time
}
