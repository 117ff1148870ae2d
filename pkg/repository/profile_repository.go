package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"sos/pkg/models"
)

type ProfileRepository interface {
	GetByUserID(id string) (models.Profile, error)
	// Update applies only the given columns. Callers are responsible for
	// restricting the map to allow-listed columns.
	Update(id string, fields map[string]any) (models.Profile, error)
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, name,
	COALESCE(blood_type, ''), COALESCE(phone, ''), COALESCE(date_of_birth, ''),
	COALESCE(allergies, ''), COALESCE(medications, ''), COALESCE(conditions, ''),
	COALESCE(emergency_contact_name, ''), COALESCE(emergency_contact_phone, ''),
	COALESCE(emergency_contact_relationship, ''), updated_at`

func scanProfile(row *sql.Row) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.Name, &p.BloodType, &p.Phone, &p.DateOfBirth,
		&p.Allergies, &p.Medications, &p.Conditions,
		&p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.EmergencyContactRelationship, &p.UpdatedAt,
	)
	return p, err
}

func (r *profileRepository) GetByUserID(id string) (models.Profile, error) {
	row := r.db.QueryRow(
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id,
	)
	return scanProfile(row)
}

func (r *profileRepository) Update(id string, fields map[string]any) (models.Profile, error) {
	if len(fields) == 0 {
		return r.GetByUserID(id)
	}

	setClauses := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	i := 1
	for col, val := range fields {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}
	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE profiles SET %s WHERE id = $%d RETURNING `+profileColumns,
		strings.Join(setClauses, ", "), i,
	)

	row := r.db.QueryRow(query, args...)
	return scanProfile(row)
}
