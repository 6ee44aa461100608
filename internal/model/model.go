// Package model содержит доменные сущности сервиса экопоинтс.
package model

import "time"

// User представляет зарегистрированного пользователя системы наград.
type User struct {
	ID           int64
	Email        string
	PasswordHash []byte
	TotalPoints  int64
	CreatedAt    time.Time
}

// WasteType описывает вид сдаваемых отходов.
type WasteType string

const (
	WasteTypePlastic WasteType = "Plastic"
	WasteTypeGlass   WasteType = "Glass"
	WasteTypePaper   WasteType = "Paper"
	WasteTypeMetal   WasteType = "Metal"
)

// WasteEntry описывает одну сдачу отходов и начисленные за неё баллы.
type WasteEntry struct {
	WasteType    WasteType
	WasteAmount  int64
	PointsEarned int64
	CreatedAt    time.Time
}

// Reward описывает награду из каталога.
type Reward struct {
	ID             int64
	Name           string
	PointsRequired int64
	Available      bool
}

// Redemption описывает факт списания баллов за награду.
type Redemption struct {
	RewardID    int64
	RewardName  string
	PointsSpent int64
	RedeemedAt  time.Time
}

// ShippingAddress содержит адрес доставки награды.
type ShippingAddress struct {
	ID        int64
	FirstName string
	LastName  string
	Address   string
	City      string
	State     string
	Zip       string
	CreatedAt time.Time
}
