package domain

import "time"

type ChatID string
type UserID string

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Timestamp = time.Time
