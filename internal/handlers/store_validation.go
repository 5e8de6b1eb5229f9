package handlers

import (
	"strings"
)

func validateStoreOnboardingRequest(req storeOnboardingRequest) string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if strings.TrimSpace(req.Description) == "" {
		return "description is required"
	}
	if strings.TrimSpace(req.Address) == "" {
		return "address is required"
	}
	if err := validateCoordinates(req.Latitude, req.Longitude); err != "" {
		return err
	}
	if strings.TrimSpace(req.Phone) == "" {
		return "phone is required"
	}
	return ""
}

func validateUpdateStoreRequest(req updateStoreRequest) string {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return "name must not be empty"
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return "description must not be empty"
	}
	if req.Address != nil && strings.TrimSpace(*req.Address) == "" {
		return "address must not be empty"
	}
	if req.Latitude != nil || req.Longitude != nil {
		if req.Latitude == nil || req.Longitude == nil {
			return "latitude and longitude must be updated together"
		}
		if err := validateCoordinates(*req.Latitude, *req.Longitude); err != "" {
			return err
		}
	}
	if req.Phone != nil && strings.TrimSpace(*req.Phone) == "" {
		return "phone must not be empty"
	}
	return ""
}

func validateCoordinates(latitude, longitude float64) string {
	if latitude < -90 || latitude > 90 {
		return "latitude must be between -90 and 90"
	}
	if longitude < -180 || longitude > 180 {
		return "longitude must be between -180 and 180"
	}
	return ""
}
