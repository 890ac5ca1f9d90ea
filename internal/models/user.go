package models

import (
	"time"

	dbgen "github.com/codr1/leaguedesk/internal/db/generated"
)

// User is the public view of a user row. The password hash and Clerk id never
// leave the server.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Gender    *string   `json:"gender,omitempty"`
	Level     *int64    `json:"level,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUser(row dbgen.User) User {
	return User{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name,
		Phone:     nullString(row.Phone),
		Role:      row.Role,
		Status:    row.Status,
		Gender:    nullString(row.Gender),
		Level:     nullInt64(row.Level),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func NewUsers(rows []dbgen.User) []User {
	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, NewUser(row))
	}
	return users
}
