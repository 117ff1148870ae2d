package services

import (
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"sos/pkg/cache"
	"sos/pkg/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmergencyRepo struct {
	mu        sync.Mutex
	rows      []models.Emergency
	nextID    int64
	updateErr error
}

func (r *fakeEmergencyRepo) Create(userID string, lat, lng float64, nature string, additionalInfo *string) (models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e := models.Emergency{
		ID: r.nextID, UserID: userID, Latitude: lat, Longitude: lng,
		NatureOfEmergency: nature, AdditionalInfo: additionalInfo,
		Status: models.StatusPending, CreatedAt: time.Now(),
	}
	r.rows = append(r.rows, e)
	return e, nil
}

func (r *fakeEmergencyRepo) ListByUser(userID string) ([]models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []models.Emergency
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].UserID == userID {
			list = append(list, r.rows[i])
		}
	}
	return list, nil
}

func (r *fakeEmergencyRepo) UpdateStatus(id int64, status string) (models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return models.Emergency{}, r.updateErr
	}
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Status = status
			return r.rows[i], nil
		}
	}
	return models.Emergency{}, sql.ErrNoRows
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.Emergency
}

func (p *fakePublisher) PublishStatus(e models.Emergency) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func coords(lat, lng float64) (*float64, *float64) {
	return &lat, &lng
}

func TestCreateEmergencyMissingFields(t *testing.T) {
	repo := &fakeEmergencyRepo{}
	svc := NewEmergencyService(repo, cache.NewMemory(), nil)

	lat, lng := coords(-25.7, -53.09)

	cases := []struct {
		name string
		req  models.CreateEmergencyRequest
	}{
		{"no nature", models.CreateEmergencyRequest{Latitude: lat, Longitude: lng}},
		{"blank nature", models.CreateEmergencyRequest{Latitude: lat, Longitude: lng, NatureOfEmergency: "   "}},
		{"no latitude", models.CreateEmergencyRequest{Longitude: lng, NatureOfEmergency: "fire"}},
		{"no longitude", models.CreateEmergencyRequest{Latitude: lat, NatureOfEmergency: "fire"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create("user-1", tc.req)
			var fe *fiber.Error
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, 400, fe.Code)
			assert.Empty(t, repo.rows, "no row may be created on validation failure")
		})
	}
}

func TestCreateEmergencyPending(t *testing.T) {
	repo := &fakeEmergencyRepo{}
	svc := NewEmergencyService(repo, cache.NewMemory(), nil)

	lat, lng := coords(-25.7, -53.09)
	e, err := svc.Create("user-1", models.CreateEmergencyRequest{
		Latitude: lat, Longitude: lng, NatureOfEmergency: "fire",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, e.Status)
	assert.Equal(t, "user-1", e.UserID)
	assert.Nil(t, e.AdditionalInfo)
}

func TestCreateEmergencyZeroCoordinateAllowed(t *testing.T) {
	repo := &fakeEmergencyRepo{}
	svc := NewEmergencyService(repo, cache.NewMemory(), nil)

	lat, lng := coords(0, 0)
	_, err := svc.Create("user-1", models.CreateEmergencyRequest{
		Latitude: lat, Longitude: lng, NatureOfEmergency: "flood",
	})
	require.NoError(t, err)
}

func TestCreateEmergencyCoordinateRange(t *testing.T) {
	repo := &fakeEmergencyRepo{}
	svc := NewEmergencyService(repo, cache.NewMemory(), nil)

	lat, lng := coords(91, 0)
	_, err := svc.Create("user-1", models.CreateEmergencyRequest{
		Latitude: lat, Longitude: lng, NatureOfEmergency: "fire",
	})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 400, fe.Code)
}

func TestListInvalidatedAfterCreate(t *testing.T) {
	repo := &fakeEmergencyRepo{}
	svc := NewEmergencyService(repo, cache.NewMemory(), nil)

	list, err := svc.ListByUser("user-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	lat, lng := coords(-25.7, -53.09)
	_, err = svc.Create("user-1", models.CreateEmergencyRequest{
		Latitude: lat, Longitude: lng, NatureOfEmergency: "fire",
	})
	require.NoError(t, err)

	// The cached empty list must not mask the new row.
	list, err = svc.ListByUser("user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fire", list[0].NatureOfEmergency)
}

func TestUpdateStatus(t *testing.T) {
	repo := &fakeEmergencyRepo{}
	pub := &fakePublisher{}
	svc := NewEmergencyService(repo, cache.NewMemory(), pub)

	lat, lng := coords(-25.7, -53.09)
	created, err := svc.Create("user-1", models.CreateEmergencyRequest{
		Latitude: lat, Longitude: lng, NatureOfEmergency: "fire",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(created.ID, models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, created.ID, pub.events[0].ID)

	// Client-visible list reflects the transition immediately.
	list, err := svc.ListByUser("user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusResolved, list[0].Status)
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	repo := &fakeEmergencyRepo{}
	svc := NewEmergencyService(repo, cache.NewMemory(), nil)

	_, err := svc.UpdateStatus(1, "escalated")
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 400, fe.Code)
}

func TestUpdateStatusUnknownRowIsNotFound(t *testing.T) {
	repo := &fakeEmergencyRepo{}
	svc := NewEmergencyService(repo, cache.NewMemory(), nil)

	_, err := svc.UpdateStatus(99, models.StatusResolved)
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.Code)
}

func TestUpdateStatusRepoFailureIsNotMaskedAsNotFound(t *testing.T) {
	repo := &fakeEmergencyRepo{updateErr: errors.New("connection refused")}
	svc := NewEmergencyService(repo, cache.NewMemory(), nil)

	_, err := svc.UpdateStatus(1, models.StatusResolved)
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 500, fe.Code)
}
