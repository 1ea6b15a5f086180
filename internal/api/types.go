// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// NULLABLE VALUES
// =============================================================================

// Database rows are returned as-is by some endpoints, so a nullable column may
// arrive as a plain value, null, or {"String": "...", "Valid": true}.

// NullString is a string column that may be absent.
type NullString struct {
	String string
	Valid  bool
}

// UnmarshalJSON accepts null, a string, or the row form.
func (n *NullString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = NullString{}
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var row struct {
			String string
			Valid  bool
		}
		if err := json.Unmarshal(data, &row); err != nil {
			return err
		}
		*n = NullString{String: row.String, Valid: row.Valid}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = NullString{String: s, Valid: true}
	return nil
}

// MarshalJSON writes the plain value or null.
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

// NullInt64 is an integer column that may be absent.
type NullInt64 struct {
	Int64 int64
	Valid bool
}

// UnmarshalJSON accepts null, a number, or the row form.
func (n *NullInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = NullInt64{}
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var row struct {
			Int64 int64
			Valid bool
		}
		if err := json.Unmarshal(data, &row); err != nil {
			return err
		}
		*n = NullInt64{Int64: row.Int64, Valid: row.Valid}
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = NullInt64{Int64: v, Valid: true}
	return nil
}

// MarshalJSON writes the plain value or null.
func (n NullInt64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int64)
}

// Payload is a stored JSON document. A []byte column is serialized by the
// server as a base64 string, which is unwrapped here.
type Payload json.RawMessage

// UnmarshalJSON keeps objects and arrays verbatim and decodes base64 strings.
func (p *Payload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if data[0] != '"' {
		*p = append((*p)[:0], data...)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil && json.Valid(decoded) {
		*p = Payload(decoded)
		return nil
	}
	if json.Valid([]byte(s)) {
		*p = Payload(s)
		return nil
	}
	return fmt.Errorf("payload is neither JSON nor base64 JSON")
}

// MarshalJSON writes the document verbatim.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// Transcript is one uploaded transcript as listed by the service.
type Transcript struct {
	ID           int64      `json:"id"`
	UserUsername string     `json:"user_username,omitempty"`
	FilePath     string     `json:"file_path"`
	Text         NullString `json:"text_extracted"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UploadResult is returned after a transcript upload.
type UploadResult struct {
	ID        int64     `json:"id"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	TextBytes int       `json:"text_bytes"`
	OCRUsed   bool      `json:"ocr_used"`
}

// TranscriptDetail is a transcript with the start of its extracted text.
type TranscriptDetail struct {
	ID          int64     `json:"id"`
	FilePath    string    `json:"file_path"`
	CreatedAt   time.Time `json:"created_at"`
	TextPreview string    `json:"text_preview"`
}

// =============================================================================
// RECOMMENDATIONS
// =============================================================================

// Course is one recommended course.
type Course struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Match       float64 `json:"match"`
	Code        string  `json:"code,omitempty"`
	Link        string  `json:"link,omitempty"`
	CourseID    int64   `json:"course_id,omitempty"`
}

// Label returns "CODE Title", or the title alone.
func (c Course) Label() string {
	if c.Code == "" {
		return c.Title
	}
	return c.Code + " " + c.Title
}

// Scholarship is one suggested scholarship.
type Scholarship struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Match       float64 `json:"match"`
	Link        string  `json:"link"`
}

// Recommendation is the result of analyzing a transcript.
type Recommendation struct {
	ID           int64         `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	Courses      []Course      `json:"courses"`
	Scholarships []Scholarship `json:"scholarships,omitempty"`
	UserPref     string        `json:"user_pref,omitempty"`
	AnalyzedAt   time.Time     `json:"analyzed_at"`
	Message      string        `json:"message,omitempty"`
}

// RecommendationRecord is a stored recommendation row.
type RecommendationRecord struct {
	ID           int64     `json:"id"`
	UserUsername string    `json:"user_username,omitempty"`
	TranscriptID NullInt64 `json:"transcript_id"`
	Payload      Payload   `json:"payload"`
	CreatedAt    time.Time `json:"created_at"`
}

// Contents decodes the stored courses and scholarships.
func (r *RecommendationRecord) Contents() ([]Course, []Scholarship, error) {
	if len(r.Payload) == 0 {
		return nil, nil, nil
	}
	var body struct {
		Courses      []Course      `json:"courses"`
		Scholarships []Scholarship `json:"scholarships"`
	}
	if err := json.Unmarshal(r.Payload, &body); err != nil {
		return nil, nil, fmt.Errorf("recommendation %d: bad payload: %w", r.ID, err)
	}
	return body.Courses, body.Scholarships, nil
}

// =============================================================================
// SCHOLARSHIPS & SUMMARIES
// =============================================================================

// ScholarshipResult is returned by GenerateScholarships.
type ScholarshipResult struct {
	User         string        `json:"user"`
	Count        int           `json:"count"`
	Scholarships []Scholarship `json:"scholarships"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// GeneratedSummary is an unsaved summary text.
type GeneratedSummary struct {
	User        string    `json:"user"`
	SummaryText string    `json:"summary_text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SaveSummaryRequest asks the service to render a summary PDF.
type SaveSummaryRequest struct {
	RecommendationID    int64  `json:"recommendation_id"`
	SummaryText         string `json:"summary_text"`
	IncludeScholarships bool   `json:"include_scholarships"`
}

// SavedSummary is returned after a summary PDF is created.
type SavedSummary struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	PDFPath   string    `json:"pdf_path"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is a stored summary row.
type Summary struct {
	ID               int64      `json:"id"`
	UserUsername     string     `json:"user_username,omitempty"`
	RecommendationID NullInt64  `json:"recommendation_id"`
	SummaryText      NullString `json:"summary_text"`
	PDFPath          NullString `json:"pdf_path"`
	CreatedAt        time.Time  `json:"created_at"`
}

// =============================================================================
// WEB SEARCH
// =============================================================================

// WebResult is one web search hit.
type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// =============================================================================
// LOCAL HISTORY
// =============================================================================

// UploadedDoc records one analyzed transcript on this machine.
type UploadedDoc struct {
	TranscriptID   int64           `json:"transcript_id"`
	FileName       string          `json:"file_name"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	UploadedAt     time.Time       `json:"uploaded_at"`
}
