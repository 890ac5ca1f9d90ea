package dbgen

import (
	"context"
	"database/sql"
)

const userColumns = `id, clerk_user_id, email, phone, name, password_hash, role, status, gender, level, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.ClerkUserID,
		&i.Email,
		&i.Phone,
		&i.Name,
		&i.PasswordHash,
		&i.Role,
		&i.Status,
		&i.Gender,
		&i.Level,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const countUsersByRole = `
SELECT COUNT(*) FROM users WHERE role = ?
`

func (q *Queries) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsersByRole, role)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createUser = `
INSERT INTO users (clerk_user_id, email, phone, name, password_hash, role, status, gender, level)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns + `
`

type CreateUserParams struct {
	ClerkUserID  sql.NullString `json:"clerk_user_id"`
	Email        string         `json:"email"`
	Phone        sql.NullString `json:"phone"`
	Name         string         `json:"name"`
	PasswordHash sql.NullString `json:"password_hash"`
	Role         string         `json:"role"`
	Status       string         `json:"status"`
	Gender       sql.NullString `json:"gender"`
	Level        sql.NullInt64  `json:"level"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.ClerkUserID,
		arg.Email,
		arg.Phone,
		arg.Name,
		arg.PasswordHash,
		arg.Role,
		arg.Status,
		arg.Gender,
		arg.Level,
	)
	return scanUser(row)
}

const getUserByClerkID = `
SELECT ` + userColumns + `
FROM users
WHERE clerk_user_id = ?
`

func (q *Queries) GetUserByClerkID(ctx context.Context, clerkUserID sql.NullString) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByClerkID, clerkUserID)
	return scanUser(row)
}

const getUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	return scanUser(row)
}

const getUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	return scanUser(row)
}

const getUserByPhone = `
SELECT ` + userColumns + `
FROM users
WHERE phone = ?
ORDER BY id
LIMIT 1
`

func (q *Queries) GetUserByPhone(ctx context.Context, phone sql.NullString) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByPhone, phone)
	return scanUser(row)
}

const listUsers = `
SELECT ` + userColumns + `
FROM users
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

const listUsersByStatus = `
SELECT ` + userColumns + `
FROM users
WHERE status = ?
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListUsersByStatus(ctx context.Context, status string) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsersByStatus, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setUserClerkID = `
UPDATE users
SET clerk_user_id = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type SetUserClerkIDParams struct {
	ClerkUserID sql.NullString `json:"clerk_user_id"`
	ID          int64          `json:"id"`
}

func (q *Queries) SetUserClerkID(ctx context.Context, arg SetUserClerkIDParams) error {
	_, err := q.db.ExecContext(ctx, setUserClerkID, arg.ClerkUserID, arg.ID)
	return err
}

const updateUserLevel = `
UPDATE users
SET level = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + userColumns + `
`

type UpdateUserLevelParams struct {
	Level sql.NullInt64 `json:"level"`
	ID    int64         `json:"id"`
}

func (q *Queries) UpdateUserLevel(ctx context.Context, arg UpdateUserLevelParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserLevel, arg.Level, arg.ID)
	return scanUser(row)
}

const updateUserRole = `
UPDATE users
SET role = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + userColumns + `
`

type UpdateUserRoleParams struct {
	Role string `json:"role"`
	ID   int64  `json:"id"`
}

func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserRole, arg.Role, arg.ID)
	return scanUser(row)
}

const updateUserStatus = `
UPDATE users
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + userColumns + `
`

type UpdateUserStatusParams struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

func (q *Queries) UpdateUserStatus(ctx context.Context, arg UpdateUserStatusParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserStatus, arg.Status, arg.ID)
	return scanUser(row)
}
