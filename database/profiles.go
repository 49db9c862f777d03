package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/QuickRoll12/quickroll-backend/models"
)

// GetProfile looks the user up in the roster.
func (p *ProfileDB) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var profile models.Profile
	row := p.db.QueryRowContext(ctx,
		"SELECT name, roll, email, photo_ref FROM students WHERE user_id = ?", userID)
	err := row.Scan(&profile.Name, &profile.Roll, &profile.Email, &profile.PhotoRef)
	if errors.Is(err, sql.ErrNoRows) {
		return profile, fmt.Errorf("no profile for user %s", userID)
	}
	if err != nil {
		return profile, fmt.Errorf("query profile for %s: %w", userID, err)
	}
	return profile, nil
}
