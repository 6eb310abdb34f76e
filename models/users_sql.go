package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type sqlUserRepo struct{ db *sql.DB }

// NewSQLUserStore keeps users in Postgres; ids come from BIGSERIAL.
func NewSQLUserStore(db *sql.DB) UserStore { return &sqlUserRepo{db} }

func (r *sqlUserRepo) GetUser(ctx context.Context, id int64) (User, bool, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `SELECT id, username, password FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("select user %d: %w", id, err)
	}
	return u, true, nil
}

func (r *sqlUserRepo) GetUserByUsername(ctx context.Context, username string) (User, bool, error) {
	var u User
	// username 不是 UNIQUE → 取 id 最小的那筆
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM users WHERE username=$1 ORDER BY id LIMIT 1`, username).
		Scan(&u.ID, &u.Username, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("select user %q: %w", username, err)
	}
	return u, true, nil
}

func (r *sqlUserRepo) CreateUser(ctx context.Context, in InsertUser) (User, error) {
	u := User{Username: in.Username, Password: in.Password}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users(username, password) VALUES ($1,$2) RETURNING id`, u.Username, u.Password).
		Scan(&u.ID)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}
