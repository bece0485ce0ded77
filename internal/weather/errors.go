package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrCityNotFound is matched by every *CityNotFoundError.
	ErrCityNotFound = errors.New("city not found")

	// ErrRemoteFetchFailed wraps transport, status and decode failures of the
	// weather API. The last call time does not move when it is returned.
	ErrRemoteFetchFailed = errors.New("remote fetch failed")

	// ErrStorageCorruption is returned by stores whose persisted state cannot
	// be read back.
	ErrStorageCorruption = errors.New("weather cache is corrupt")
)

// CityNotFoundError reports a city name missing from the directory.
type CityNotFoundError struct {
	Name string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("no city found matching %q", e.Name)
}

func (e *CityNotFoundError) Is(target error) bool {
	return target == ErrCityNotFound
}
