package location

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once     sync.Once
	location *time.Location
)

// Location returns the zone configured under settings.timezone, UTC when unset or unknown.
func Location() *time.Location {
	once.Do(func() {
		loc, err := time.LoadLocation(viper.GetString("settings.timezone"))
		if err != nil {
			loc = time.UTC
		}
		location = loc
	})
	return location
}
