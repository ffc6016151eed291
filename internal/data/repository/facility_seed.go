package repository

import (
	"fmt"
	"strings"
	"time"

	"facility-booking/internal/data/entity"
	"facility-booking/pkg/money"
	"facility-booking/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type seedHours struct {
	Open  string `mapstructure:"open"`
	Close string `mapstructure:"close"`
}

type seedFacility struct {
	ID         string               `mapstructure:"id"`
	Name       string               `mapstructure:"name"`
	HourlyRate string               `mapstructure:"hourly_rate"`
	Active     bool                 `mapstructure:"active"`
	Hours      map[string]seedHours `mapstructure:"hours"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// LoadFacilitySeed reads facility descriptors for the memory store from a
// YAML/JSON/TOML file with a top-level "facilities" list.
func LoadFacilitySeed(path string) ([]*entity.Facility, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read facility seed %s: %w", path, err)
	}

	var raw []seedFacility
	if err := v.UnmarshalKey("facilities", &raw); err != nil {
		return nil, fmt.Errorf("decode facility seed %s: %w", path, err)
	}

	facilities := make([]*entity.Facility, 0, len(raw))
	for i, sf := range raw {
		f, err := sf.toEntity()
		if err != nil {
			return nil, fmt.Errorf("facility seed entry %d: %w", i, err)
		}
		facilities = append(facilities, f)
	}

	return facilities, nil
}

func (sf seedFacility) toEntity() (*entity.Facility, error) {
	id, err := uuid.Parse(sf.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid facility ID %q: %w", sf.ID, err)
	}

	rate, err := money.ParseAmount(sf.HourlyRate)
	if err != nil {
		return nil, fmt.Errorf("facility %s hourly rate: %w", sf.ID, err)
	}

	hours := make(map[time.Weekday]timeslot.Range, len(sf.Hours))
	for day, h := range sf.Hours {
		wd, ok := weekdays[strings.ToLower(day)]
		if !ok {
			return nil, fmt.Errorf("facility %s: unknown weekday %q", sf.ID, day)
		}
		open, err := timeslot.ParseClock(h.Open)
		if err != nil {
			return nil, fmt.Errorf("facility %s %s open: %w", sf.ID, day, err)
		}
		closing, err := timeslot.ParseClock(h.Close)
		if err != nil {
			return nil, fmt.Errorf("facility %s %s close: %w", sf.ID, day, err)
		}
		window, err := timeslot.NewRange(open, closing)
		if err != nil {
			return nil, fmt.Errorf("facility %s %s hours: %w", sf.ID, day, err)
		}
		hours[wd] = window
	}

	return &entity.Facility{
		ID:             id,
		Name:           sf.Name,
		HourlyRate:     rate,
		OperatingHours: hours,
		IsActive:       sf.Active,
	}, nil
}
