package domain

import "time"

// User: зарегистрированный пользователь backend'а.
//
// Username и Email уникальны (гарантируется ограничениями БД).
type User struct {
	// ID: идентификатор пользователя (serial).
	ID int64 `json:"id"`

	// Username: уникальное имя пользователя.
	Username string `json:"username"`

	// Email: уникальный адрес почты.
	Email string `json:"email"`

	// CreatedAt: время регистрации.
	CreatedAt time.Time `json:"created_at"`
}

// Profile: профиль пользователя.
//
// У пользователя не больше одного профиля: user_id уникален.
type Profile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Bio       string    `json:"bio"`
	UpdatedAt time.Time `json:"updated_at"`
}
