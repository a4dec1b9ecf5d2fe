package domain

import "errors"

var (
	ErrCityNotFound  = errors.New("city not found")
	ErrHotelNotFound = errors.New("hotel not found")
)
