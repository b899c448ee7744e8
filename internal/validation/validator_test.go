// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package validation

import (
	"errors"
	"strings"
	"testing"
)

type contentRequest struct {
	MediaType  string   `json:"media_type" validate:"required,mediatype"`
	GenreIDs   []int    `json:"genre_ids" validate:"max=2,unique,dive,gt=0"`
	ExcludeIDs []string `json:"exclude_ids" validate:"max=500"`
	Count      int      `json:"count" validate:"min=1,max=100"`
}

type groupRequest struct {
	GroupID string `json:"group_id" validate:"required,entityid"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{"valid", &contentRequest{MediaType: "movie", GenreIDs: []int{28, 12}, Count: 10}, "", ""},
		{"missing media type", &contentRequest{Count: 1}, "media_type", "media_type is required"},
		{"bad media type", &contentRequest{MediaType: "BOOK", Count: 1}, "media_type", "MOVIE or TV"},
		{"three genres", &contentRequest{MediaType: "TV", GenreIDs: []int{1, 2, 3}, Count: 1}, "genre_ids", "at most 2 items"},
		{"duplicate genres", &contentRequest{MediaType: "TV", GenreIDs: []int{5, 5}, Count: 1}, "genre_ids", "duplicates"},
		{"zero genre", &contentRequest{MediaType: "TV", GenreIDs: []int{0}, Count: 1}, "genre_ids[0]", "greater than 0"},
		{"count too big", &contentRequest{MediaType: "TV", Count: 101}, "count", "at most 100"},
		{"bad group id", &groupRequest{GroupID: "a/b"}, "group_id", "letters, digits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *RequestValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *RequestValidationError", err)
			}
			if ve.Fields[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", ve.Fields[0].Field, tt.wantField)
			}
			if !strings.Contains(ve.Error(), tt.wantMsg) {
				t.Errorf("message %q does not contain %q", ve.Error(), tt.wantMsg)
			}
		})
	}
}

func TestDetailsListsEveryField(t *testing.T) {
	t.Parallel()
	err := ValidateStruct(&contentRequest{MediaType: "x", Count: 0})
	var ve *RequestValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected validation error")
	}
	fields, _ := ve.Details()["fields"].([]FieldError)
	if len(fields) != 2 {
		t.Errorf("fields = %+v, want media_type and count", fields)
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}
