// internal/notify/contacts.go
package notify

import (
	"context"
	"database/sql"
)

// PostgresContacts resolves user contact details from the users table.
type PostgresContacts struct {
	db *sql.DB
}

func NewPostgresContacts(db *sql.DB) *PostgresContacts {
	return &PostgresContacts{db: db}
}

func (c *PostgresContacts) Contact(ctx context.Context, userID string) (string, string, error) {
	var email, phone sql.NullString
	err := c.db.QueryRowContext(ctx,
		`SELECT email, phone FROM users WHERE id = $1`, userID).Scan(&email, &phone)
	if err != nil {
		return "", "", err
	}
	return email.String, phone.String, nil
}
