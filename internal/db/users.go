package db

import (
	"time"

	"github.com/video-stream/captionsync/internal/auth"
	"github.com/video-stream/captionsync/internal/db/models"
)

// ValidRoles are the roles a user can hold.
var ValidRoles = map[string]bool{auth.RoleAdmin: true, auth.RoleEditor: true, auth.RoleViewer: true}

func (d *Database) ListUsers() ([]*models.User, error) {
	rows, err := d.db.Query("SELECT id, username, role, created_at, updated_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser stores a user with an already hashed password.
func (d *Database) CreateUser(username, passwordHash, role string) (int64, error) {
	res, err := d.db.Exec(
		"INSERT INTO users (username, password, role) VALUES (?, ?, ?)",
		username, passwordHash, role,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *Database) UpdateUser(id int64, username, role string) error {
	res, err := d.db.Exec(
		"UPDATE users SET username = ?, role = ?, updated_at = ? WHERE id = ?",
		username, role, time.Now().UTC(), id,
	)
	return affected(res, err)
}

func (d *Database) UpdateUserPassword(id int64, passwordHash string) error {
	res, err := d.db.Exec(
		"UPDATE users SET password = ?, updated_at = ? WHERE id = ?",
		passwordHash, time.Now().UTC(), id,
	)
	return affected(res, err)
}

func (d *Database) DeleteUser(id int64) error {
	res, err := d.db.Exec("DELETE FROM users WHERE id = ?", id)
	return affected(res, err)
}

func (d *Database) CountAdmins() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&n)
	return n, err
}

// Counts summarises what is stored, for the admin dashboard.
type Counts struct {
	Users           int `json:"users"`
	CaptionTracks   int `json:"caption_tracks"`
	BilingualTracks int `json:"bilingual_tracks"`
	PendingJobs     int `json:"pending_jobs"`
}

func (d *Database) Counts() (Counts, error) {
	var c Counts
	err := d.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM caption_tracks),
			(SELECT COUNT(*) FROM bilingual_tracks),
			(SELECT COUNT(*) FROM jobs WHERE status IN ('pending', 'running'))`,
	).Scan(&c.Users, &c.CaptionTracks, &c.BilingualTracks, &c.PendingJobs)
	return c, err
}
