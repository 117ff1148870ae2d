package services

import (
	"time"

	"sos/pkg/cache"
	"sos/pkg/models"
	"sos/pkg/repository"

	"github.com/gofiber/fiber/v2"
)

// profileAllowList is the fixed set of columns a client may update.
// Anything else in the request body is silently dropped.
var profileAllowList = map[string]bool{
	"name":                           true,
	"blood_type":                     true,
	"phone":                          true,
	"date_of_birth":                  true,
	"allergies":                      true,
	"medications":                    true,
	"conditions":                     true,
	"emergency_contact_name":         true,
	"emergency_contact_phone":        true,
	"emergency_contact_relationship": true,
}

type ProfileService interface {
	Get(userID string) (models.Profile, error)
	Update(userID string, fields map[string]any) (models.Profile, error)
}

type profileService struct {
	repo  repository.ProfileRepository
	cache cache.Cache
}

func NewProfileService(repo repository.ProfileRepository, c cache.Cache) ProfileService {
	return &profileService{repo: repo, cache: c}
}

func (s *profileService) Get(userID string) (models.Profile, error) {
	key := "profile:" + userID

	var cached models.Profile
	if s.cache.Get(key, &cached) {
		return cached, nil
	}

	profile, err := s.repo.GetByUserID(userID)
	if err != nil {
		return models.Profile{}, fiber.NewError(404, "Profile not found")
	}

	s.cache.Set(key, profile, 5*time.Minute)
	return profile, nil
}

func (s *profileService) Update(userID string, fields map[string]any) (models.Profile, error) {
	allowed := make(map[string]any, len(fields))
	for k, v := range fields {
		if profileAllowList[k] {
			allowed[k] = v
		}
	}

	profile, err := s.repo.Update(userID, allowed)
	if err != nil {
		return models.Profile{}, fiber.NewError(500, "Error updating profile")
	}

	s.cache.Del("profile:" + userID)
	return profile, nil
}
