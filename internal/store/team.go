package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/subsync/internal/model"
)

type TeamStore struct {
	db *sql.DB
}

func NewTeamStore(db *sql.DB) *TeamStore {
	return &TeamStore{db: db}
}

func scanTeam(scanner interface{ Scan(...any) error }) (*model.Team, error) {
	var t model.Team
	var customerID, subscriptionID, productID, planName, status sql.NullString
	err := scanner.Scan(
		&t.ID, &t.Name, &customerID, &subscriptionID, &productID,
		&planName, &status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		t.StripeCustomerID = &customerID.String
	}
	if subscriptionID.Valid {
		t.StripeSubscriptionID = &subscriptionID.String
	}
	if productID.Valid {
		t.StripeProductID = &productID.String
	}
	if planName.Valid {
		t.PlanName = &planName.String
	}
	if status.Valid {
		t.SubscriptionStatus = &status.String
	}
	return &t, nil
}

const teamCols = `id, name, stripe_customer_id, stripe_subscription_id, stripe_product_id, plan_name, subscription_status, created_at, updated_at`

func (s *TeamStore) Create(name string) (*model.Team, error) {
	result, err := s.db.Exec(
		`INSERT INTO teams (name) VALUES (?)`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TeamStore) GetByID(id int64) (*model.Team, error) {
	row := s.db.QueryRow(`SELECT `+teamCols+` FROM teams WHERE id = ?`, id)
	t, err := scanTeam(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

// GetByStripeCustomerID returns the team bound to the given Stripe customer,
// or nil when no team has claimed that customer yet.
func (s *TeamStore) GetByStripeCustomerID(customerID string) (*model.Team, error) {
	row := s.db.QueryRow(
		`SELECT `+teamCols+` FROM teams WHERE stripe_customer_id = ?`,
		customerID,
	)
	t, err := scanTeam(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team by stripe customer id: %w", err)
	}
	return t, nil
}

// GetForUser returns the team the user belongs to, or nil when the user has
// no team membership.
func (s *TeamStore) GetForUser(userID string) (*model.Team, error) {
	row := s.db.QueryRow(
		`SELECT t.id, t.name, t.stripe_customer_id, t.stripe_subscription_id, t.stripe_product_id, t.plan_name, t.subscription_status, t.created_at, t.updated_at
		 FROM teams t
		 JOIN team_members tm ON tm.team_id = t.id
		 WHERE tm.user_id = ?
		 LIMIT 1`,
		userID,
	)
	t, err := scanTeam(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team for user: %w", err)
	}
	return t, nil
}

// SubscriptionUpdate is a full overwrite of a team's billing fields. Nil
// pointers write NULL, so reapplying the same update is idempotent.
type SubscriptionUpdate struct {
	StripeSubscriptionID *string
	StripeProductID      *string
	PlanName             *string
	Status               string
}

func (s *TeamStore) UpdateSubscription(teamID int64, update SubscriptionUpdate) error {
	_, err := s.db.Exec(
		`UPDATE teams
		 SET stripe_subscription_id = ?, stripe_product_id = ?, plan_name = ?, subscription_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		update.StripeSubscriptionID, update.StripeProductID, update.PlanName, update.Status, teamID,
	)
	if err != nil {
		return fmt.Errorf("update team subscription: %w", err)
	}
	return nil
}

// SetStripeCustomerIDIfEmpty binds the Stripe customer to the team only if no
// customer is bound yet. The guard lives in the WHERE clause so concurrent
// binds cannot interleave a read-modify-write.
func (s *TeamStore) SetStripeCustomerIDIfEmpty(teamID int64, customerID string) error {
	_, err := s.db.Exec(
		`UPDATE teams
		 SET stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND (stripe_customer_id IS NULL OR stripe_customer_id = '')`,
		customerID, teamID,
	)
	if err != nil {
		return fmt.Errorf("set stripe customer id: %w", err)
	}
	return nil
}

func (s *TeamStore) AddMember(teamID int64, userID, role string) error {
	_, err := s.db.Exec(
		`INSERT INTO team_members (user_id, team_id, role) VALUES (?, ?, ?)`,
		userID, teamID, role,
	)
	if err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (s *TeamStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}
