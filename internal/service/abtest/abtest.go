// Package abtest assigns message variants and reports how each performs.
package abtest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
)

type Store interface {
	CountByTypeAndStatus(ctx context.Context, reminderType domain.ReminderType, status domain.ReminderStatus) (int, error)
	RecordResponse(ctx context.Context, id int64, action string, at time.Time) error
	VariantStats(ctx context.Context, reminderType domain.ReminderType) ([]domain.VariantStat, error)
}

type VariantStatistics struct {
	Variant        string  `json:"variant"`
	Sent           int     `json:"sent"`
	Responded      int     `json:"responded"`
	ConversionRate float64 `json:"conversion_rate"`
}

type Statistics struct {
	Type     domain.ReminderType `json:"type"`
	Variants []VariantStatistics `json:"variants"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// AssignVariant alternates on the number of SENT reminders of the same type.
// Concurrent creations may observe the same count; the split stays roughly
// even, which is all the wording experiment needs.
func (s *Service) AssignVariant(ctx context.Context, reminderType domain.ReminderType) (string, error) {
	sent, err := s.store.CountByTypeAndStatus(ctx, reminderType, domain.ReminderSent)
	if err != nil {
		return domain.VariantA, fmt.Errorf("count sent reminders: %w", err)
	}
	if sent%2 == 0 {
		return domain.VariantA, nil
	}
	return domain.VariantB, nil
}

// TrackResponse records the recipient's reaction to a reminder.
func (s *Service) TrackResponse(ctx context.Context, reminderID int64, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return fmt.Errorf("response action is required")
	}
	return s.store.RecordResponse(ctx, reminderID, action, s.now().UTC())
}

// Statistics always lists variants A and B, followed by any other label
// found in storage.
func (s *Service) Statistics(ctx context.Context, reminderType domain.ReminderType) (*Statistics, error) {
	rows, err := s.store.VariantStats(ctx, reminderType)
	if err != nil {
		return nil, err
	}

	byVariant := make(map[string]domain.VariantStat, len(rows))
	order := []string{domain.VariantA, domain.VariantB}
	for _, row := range rows {
		if row.Variant != domain.VariantA && row.Variant != domain.VariantB {
			order = append(order, row.Variant)
		}
		byVariant[row.Variant] = row
	}

	stats := &Statistics{Type: reminderType, Variants: make([]VariantStatistics, 0, len(order))}
	for _, variant := range order {
		row := byVariant[variant]
		stats.Variants = append(stats.Variants, VariantStatistics{
			Variant:        variant,
			Sent:           row.Sent,
			Responded:      row.Responded,
			ConversionRate: conversion(row.Sent, row.Responded),
		})
	}
	return stats, nil
}

func conversion(sent, responded int) float64 {
	if sent == 0 {
		return 0
	}
	return float64(responded) / float64(sent) * 100
}
