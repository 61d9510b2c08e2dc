// Package mcp provides the Model Context Protocol server integration for
// uniroutine.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tableflip.dev/uniroutine/pkg/catalog"
	"tableflip.dev/uniroutine/pkg/period"
	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/selection"
	"tableflip.dev/uniroutine/pkg/store"
)

const defaultTimeout = 10 * time.Second

// ErrPeriodOutOfRange is returned for a period number outside the time table.
var ErrPeriodOutOfRange = errors.New("period out of range")

// Service answers MCP requests with short-lived selection sessions.
type Service struct {
	Source  store.Source
	Options selection.Options
	// Timeout bounds each request (10s when zero).
	Timeout time.Duration
}

// DayDTO is one weekday of a schedule.
type DayDTO struct {
	Day     string          `json:"day"`
	Name    string          `json:"name"`
	Periods []period.Record `json:"periods"`
	Error   string          `json:"error,omitempty"`
}

// ScheduleDTO is the weekly schedule of a class.
type ScheduleDTO struct {
	Class catalog.Entity `json:"class"`
	Days  []DayDTO       `json:"days"`
}

// PeriodDTO is one cell of the grid with its time slot.
type PeriodDTO struct {
	Class   string `json:"class"`
	Day     string `json:"day"`
	DayName string `json:"dayName"`
	Time    string `json:"time,omitempty"`
	Lunch   bool   `json:"lunch,omitempty"`
	period.Record
}

// NewService builds a service over src.
func NewService(src store.Source, opts selection.Options) *Service {
	return &Service{Source: src, Options: opts}
}

func (s *Service) context(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// ListClasses returns the catalog in store order.
func (s *Service) ListClasses(ctx context.Context) ([]catalog.Entity, error) {
	if s.Source == nil {
		return nil, errors.New("store is not configured")
	}
	ctx, cancel := s.context(ctx)
	defer cancel()
	v, err := selection.Load(ctx, s.Source, "", s.Options)
	if err != nil {
		return nil, err
	}
	return v.Entities, nil
}

// Schedule loads every weekday of classID.
func (s *Service) Schedule(ctx context.Context, classID string) (ScheduleDTO, error) {
	classID = strings.TrimSpace(classID)
	if classID == "" {
		return ScheduleDTO{}, errors.New("class id is required")
	}
	if s.Source == nil {
		return ScheduleDTO{}, errors.New("store is not configured")
	}
	ctx, cancel := s.context(ctx)
	defer cancel()
	v, err := selection.Load(ctx, s.Source, classID, s.Options)
	if err != nil {
		return ScheduleDTO{}, err
	}

	dto := ScheduleDTO{Class: *v.Selected, Days: make([]DayDTO, 0, len(schedule.Days))}
	for _, day := range schedule.Days {
		d := DayDTO{Day: string(day), Name: day.DisplayName(), Periods: []period.Record(v.Snapshot[day])}
		if d.Periods == nil {
			d.Periods = []period.Record{}
		}
		if err := v.DayErrors[day]; err != nil {
			d.Error = err.Error()
		}
		dto.Days = append(dto.Days, d)
	}
	return dto, nil
}

// Period looks up one slot. A slot with no stored period answers an empty
// record, as does the lunch slot.
func (s *Service) Period(ctx context.Context, classID, dayName string, number int) (PeriodDTO, error) {
	day, err := schedule.ParseDay(dayName)
	if err != nil {
		return PeriodDTO{}, err
	}
	slot, ok := timeSlot(number)
	if !ok {
		return PeriodDTO{}, fmt.Errorf("%w: %d (want 1 to %d)", ErrPeriodOutOfRange, number, len(schedule.TimeSlots))
	}
	classID = strings.TrimSpace(classID)
	if classID == "" {
		return PeriodDTO{}, errors.New("class id is required")
	}
	if s.Source == nil {
		return PeriodDTO{}, errors.New("store is not configured")
	}

	ctx, cancel := s.context(ctx)
	defer cancel()
	v, err := selection.Load(ctx, s.Source, classID, s.Options)
	if err != nil {
		return PeriodDTO{}, err
	}

	dto := PeriodDTO{
		Class:   classID,
		Day:     string(day),
		DayName: day.DisplayName(),
		Time:    slot.Time,
		Lunch:   slot.Lunch,
		Record:  period.Record{Number: number},
	}
	if slot.Lunch {
		return dto, nil
	}
	if rec, ok := v.Lookup(day, number); ok {
		dto.Record = rec
	}
	return dto, nil
}

func timeSlot(number int) (schedule.TimeSlot, bool) {
	for _, slot := range schedule.TimeSlots {
		if slot.Period == number {
			return slot, true
		}
	}
	return schedule.TimeSlot{}, false
}
