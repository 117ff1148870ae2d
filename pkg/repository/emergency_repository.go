package repository

import (
	"database/sql"

	"sos/pkg/models"
)

type EmergencyRepository interface {
	Create(userID string, lat, lng float64, nature string, additionalInfo *string) (models.Emergency, error)
	ListByUser(userID string) ([]models.Emergency, error)
	UpdateStatus(id int64, status string) (models.Emergency, error)
}

type emergencyRepository struct {
	db *sql.DB
}

func NewEmergencyRepository(db *sql.DB) EmergencyRepository {
	return &emergencyRepository{db: db}
}

func (r *emergencyRepository) Create(userID string, lat, lng float64, nature string, additionalInfo *string) (models.Emergency, error) {
	var e models.Emergency
	err := r.db.QueryRow(
		`INSERT INTO emergencies (user_id, latitude, longitude, nature_of_emergency, additional_info, status)
		 VALUES ($1, $2, $3, $4, $5, 'pending')
		 RETURNING id, user_id, latitude, longitude, nature_of_emergency, additional_info, status, created_at`,
		userID, lat, lng, nature, additionalInfo,
	).Scan(&e.ID, &e.UserID, &e.Latitude, &e.Longitude, &e.NatureOfEmergency,
		&e.AdditionalInfo, &e.Status, &e.CreatedAt)
	return e, err
}

func (r *emergencyRepository) ListByUser(userID string) ([]models.Emergency, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, latitude, longitude, nature_of_emergency, additional_info, status, created_at
		 FROM emergencies WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Emergency
	for rows.Next() {
		var e models.Emergency
		if err := rows.Scan(&e.ID, &e.UserID, &e.Latitude, &e.Longitude,
			&e.NatureOfEmergency, &e.AdditionalInfo, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *emergencyRepository) UpdateStatus(id int64, status string) (models.Emergency, error) {
	var e models.Emergency
	err := r.db.QueryRow(
		`UPDATE emergencies SET status = $1 WHERE id = $2
		 RETURNING id, user_id, latitude, longitude, nature_of_emergency, additional_info, status, created_at`,
		status, id,
	).Scan(&e.ID, &e.UserID, &e.Latitude, &e.Longitude, &e.NatureOfEmergency,
		&e.AdditionalInfo, &e.Status, &e.CreatedAt)
	return e, err
}
