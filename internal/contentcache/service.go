// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package contentcache

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/tomtom215/trinity/internal/catalog"
	"github.com/tomtom215/trinity/internal/models"
)

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("invalid content request")

// ContentRequest is one getContent call. Genres holds names ("Acción",
// "sci-fi") resolved for the media type and merged with GenreIDs.
type ContentRequest struct {
	GroupID    string   `json:"group_id"`
	MediaType  string   `json:"media_type"`
	GenreIDs   []int    `json:"genre_ids"`
	Genres     []string `json:"genres"`
	ExcludeIDs []string `json:"exclude_ids"`
	Count      int      `json:"count"`
}

// BatchRef names one stored batch.
type BatchRef struct {
	GroupID   string
	MediaType string
	GenreIDs  []int
	Genres    []string
}

// Service is the getContent entry point.
type Service struct {
	cache    *Cache
	maxCount int
}

// NewService wraps cache. maxCount <= 0 means 100.
func NewService(cache *Cache, maxCount int) *Service {
	if maxCount <= 0 {
		maxCount = 100
	}
	return &Service{cache: cache, maxCount: maxCount}
}

// GetContent validates req and returns up to req.Count candidates.
func (s *Service) GetContent(ctx context.Context, req ContentRequest) ([]models.CandidateItem, error) {
	if req.Count < 1 || req.Count > s.maxCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRequest, s.maxCount)
	}
	sig, err := signature(BatchRef{GroupID: req.GroupID, MediaType: req.MediaType, GenreIDs: req.GenreIDs, Genres: req.Genres})
	if err != nil {
		return nil, err
	}
	return s.cache.GetBatch(ctx, req.GroupID, sig, req.ExcludeIDs, req.Count)
}

// BatchStatus reports the stored batch for ref, or ErrNoBatch.
func (s *Service) BatchStatus(ctx context.Context, ref BatchRef) (*BatchStatus, error) {
	sig, err := signature(ref)
	if err != nil {
		return nil, err
	}
	return s.cache.Status(ctx, ref.GroupID, sig)
}

// InvalidateBatch drops the stored batch for ref.
func (s *Service) InvalidateBatch(ctx context.Context, ref BatchRef) error {
	sig, err := signature(ref)
	if err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, ref.GroupID, sig)
}

// MaxCount is the largest accepted count.
func (s *Service) MaxCount() int { return s.maxCount }

func signature(ref BatchRef) (models.FilterSignature, error) {
	if ref.GroupID == "" {
		return models.FilterSignature{}, fmt.Errorf("%w: group id required", ErrInvalidRequest)
	}
	mt, err := models.ParseMediaType(ref.MediaType)
	if err != nil {
		return models.FilterSignature{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	named, err := catalog.ParseGenres(mt, ref.Genres)
	if err != nil {
		return models.FilterSignature{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	ids := append(slices.Clone(ref.GenreIDs), named...)
	sig, err := models.NewFilterSignature(mt, ids)
	if err != nil {
		return models.FilterSignature{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return sig, nil
}
