package model

// DefaultServiceDuration is used when a service has no duration set.
const DefaultServiceDuration = 30

// Service is an offering of the clinic (consultation, grooming, ...)
type Service struct {
	Base
	Name     string `json:"name" db:"name"`
	Duration int    `json:"duration" db:"duration"` // in minutes
}

// Minutes returns the booking length of the service.
func (s *Service) Minutes() int {
	if s == nil || s.Duration <= 0 {
		return DefaultServiceDuration
	}
	return s.Duration
}

type CreateServiceRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Duration int    `json:"duration" binding:"omitempty,gte=5,lte=480"`
}

type UpdateServiceRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Duration *int    `json:"duration" binding:"omitempty,gte=5,lte=480"`
}
