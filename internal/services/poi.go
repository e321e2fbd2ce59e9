package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"poi-backend/internal/models"
	"poi-backend/internal/pagination"
	"poi-backend/internal/repository"
)

// POIStore persists points of interest
type POIStore interface {
	Create(ctx context.Context, poi *models.POI) error
	GetByID(ctx context.Context, id int64) (*models.POI, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	Update(ctx context.Context, poi *models.POI) error
	List(ctx context.Context, limit, offset int) ([]*models.POI, int, error)
}

// POIService handles POI business logic
type POIService struct {
	poiRepo POIStore
}

// NewPOIService creates a new POI service
func NewPOIService(poiRepo POIStore) *POIService {
	return &POIService{poiRepo: poiRepo}
}

// POIRequest is the body of POI create and update calls; nil fields are absent
type POIRequest struct {
	Name    *string  `json:"name"`
	Details *string  `json:"details"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// Get retrieves a POI by ID
func (s *POIService) Get(ctx context.Context, id int64) (*models.POI, error) {
	poi, err := s.poiRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "poi", ID: id}
		}
		return nil, fmt.Errorf("failed to get poi: %w", err)
	}
	return poi, nil
}

// List retrieves one page of POIs ordered by ID
func (s *POIService) List(ctx context.Context, p pagination.Params) ([]*models.POI, int, error) {
	pois, total, err := s.poiRepo.List(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pois: %w", err)
	}
	return pois, total, nil
}

// Create validates req and stores a new POI. name, lat and lng are required.
func (s *POIService) Create(ctx context.Context, req POIRequest) (*models.POI, error) {
	name, err := requiredString("name", req.Name)
	if err != nil {
		return nil, err
	}
	if req.Lat == nil {
		return nil, missingField("lat")
	}
	if req.Lng == nil {
		return nil, missingField("lng")
	}

	poi := &models.POI{Name: name, Lat: *req.Lat, Lng: *req.Lng}
	if req.Details != nil {
		poi.Details = *req.Details
	}
	if err := validateCoordinates(poi); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, poi.Name, 0); err != nil {
		return nil, err
	}

	// The pre-check can race with a concurrent insert; the unique constraint decides.
	if err := s.poiRepo.Create(ctx, poi); err != nil {
		return nil, mapPOIConflict(err)
	}
	return poi, nil
}

// Update merges the fields present in req into the POI, keeping names unique
func (s *POIService) Update(ctx context.Context, id int64, req POIRequest) (*models.POI, error) {
	poi, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := requiredString("name", req.Name)
		if err != nil {
			return nil, err
		}
		poi.Name = name
	}
	if req.Details != nil {
		poi.Details = *req.Details
	}
	if req.Lat != nil {
		poi.Lat = *req.Lat
	}
	if req.Lng != nil {
		poi.Lng = *req.Lng
	}
	if err := validateCoordinates(poi); err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := s.ensureNameFree(ctx, poi.Name, poi.ID); err != nil {
			return nil, err
		}
	}

	if err := s.poiRepo.Update(ctx, poi); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "poi", ID: id}
		}
		return nil, mapPOIConflict(err)
	}
	return poi, nil
}

func (s *POIService) ensureNameFree(ctx context.Context, name string, excludeID int64) error {
	exists, err := s.poiRepo.NameExists(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check poi name: %w", err)
	}
	if exists {
		return ErrDuplicateName
	}
	return nil
}

func mapPOIConflict(err error) error {
	var conflict *repository.UniqueViolationError
	if errors.As(err, &conflict) && conflict.Constraint == repository.ConstraintPOIName {
		return ErrDuplicateName
	}
	return fmt.Errorf("failed to save poi: %w", err)
}

func validateCoordinates(poi *models.POI) error {
	if math.IsNaN(poi.Lat) || poi.Lat < -90 || poi.Lat > 90 {
		return invalidField("lat", "must be between -90 and 90")
	}
	if math.IsNaN(poi.Lng) || poi.Lng < -180 || poi.Lng > 180 {
		return invalidField("lng", "must be between -180 and 180")
	}
	return nil
}
