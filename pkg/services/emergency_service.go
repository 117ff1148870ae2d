package services

import (
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"sos/pkg/cache"
	"sos/pkg/models"
	"sos/pkg/repository"

	"github.com/gofiber/fiber/v2"
)

// StatusPublisher receives status-transition events for fan-out to
// connected clients. The redis broker implements it in production.
type StatusPublisher interface {
	PublishStatus(emergency models.Emergency) error
}

type EmergencyService interface {
	Create(userID string, req models.CreateEmergencyRequest) (models.Emergency, error)
	ListByUser(userID string) ([]models.Emergency, error)
	UpdateStatus(id int64, status string) (models.Emergency, error)
}

type emergencyService struct {
	repo      repository.EmergencyRepository
	cache     cache.Cache
	publisher StatusPublisher
}

func NewEmergencyService(repo repository.EmergencyRepository, c cache.Cache, pub StatusPublisher) EmergencyService {
	return &emergencyService{repo: repo, cache: c, publisher: pub}
}

func (s *emergencyService) Create(userID string, req models.CreateEmergencyRequest) (models.Emergency, error) {
	nature := strings.TrimSpace(req.NatureOfEmergency)
	if req.Latitude == nil || req.Longitude == nil || nature == "" {
		return models.Emergency{}, fiber.NewError(400, "Missing required fields")
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		return models.Emergency{}, fiber.NewError(400, "Coordinates out of range")
	}

	var info *string
	if trimmed := strings.TrimSpace(req.AdditionalInfo); trimmed != "" {
		info = &trimmed
	}

	emergency, err := s.repo.Create(userID, *req.Latitude, *req.Longitude, nature, info)
	if err != nil {
		return models.Emergency{}, fiber.NewError(500, "Error creating emergency")
	}

	s.cache.Del("emergencies:" + userID)
	return emergency, nil
}

func (s *emergencyService) ListByUser(userID string) ([]models.Emergency, error) {
	key := "emergencies:" + userID

	var cached []models.Emergency
	if s.cache.Get(key, &cached) {
		return cached, nil
	}

	list, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, fiber.NewError(500, "Error fetching emergencies")
	}
	if list == nil {
		list = []models.Emergency{}
	}

	s.cache.Set(key, list, 30*time.Second)
	return list, nil
}

func (s *emergencyService) UpdateStatus(id int64, status string) (models.Emergency, error) {
	if !models.ValidStatus(status) {
		return models.Emergency{}, fiber.NewError(400, "Invalid status")
	}

	emergency, err := s.repo.UpdateStatus(id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Emergency{}, fiber.NewError(404, "Emergency not found")
	}
	if err != nil {
		return models.Emergency{}, fiber.NewError(500, "Error updating status")
	}

	s.cache.Del("emergencies:" + emergency.UserID)

	if s.publisher != nil {
		// Delivery is best-effort; the row is already updated.
		if err := s.publisher.PublishStatus(emergency); err != nil {
			log.Printf("[SOS] status publish failed: %v", err)
		}
	}
	return emergency, nil
}
