package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/subsync/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var name sql.NullString
	err := scanner.Scan(&u.ID, &u.ExternalID, &u.Email, &name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if name.Valid {
		u.Name = &name.String
	}
	return &u, nil
}

const userCols = `id, external_id, email, name, created_at, updated_at`

func (s *UserStore) Create(externalID, email, name string) (*model.User, error) {
	id := uuid.NewString()
	var nameVal any
	if name != "" {
		nameVal = name
	}
	_, err := s.db.Exec(
		`INSERT INTO users (id, external_id, email, name) VALUES (?, ?, ?, ?)`,
		id, externalID, email, nameVal,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByExternalID(externalID string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE external_id = ?`, externalID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by external id: %w", err)
	}
	return u, nil
}

// EnsureExists returns the user for the identity provider's subject, creating
// a local record on first sight.
func (s *UserStore) EnsureExists(externalID, email, name string) (*model.User, error) {
	u, err := s.GetByExternalID(externalID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	return s.Create(externalID, email, name)
}

func (s *UserStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
