// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/edusphere/edusphere-tui/internal/storage"
	"github.com/edusphere/edusphere-tui/internal/transport"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotPDF is returned when an upload is not a PDF document.
	ErrNotPDF = errors.New("only PDF transcripts are supported")

	// ErrNoRecommendation is returned when no recommendation has been made yet.
	ErrNoRecommendation = errors.New("no recommendation yet: run 'edusphere recommend' first")

	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("search query is empty")
)

// MaxUploadSize bounds transcript uploads.
const MaxUploadSize = 20 * 1024 * 1024

// =============================================================================
// CLIENT
// =============================================================================

// Client calls the advising endpoints.
type Client struct {
	http *transport.Client
	kv   storage.KV
}

// NewClient creates a client. kv holds the last recommendation context and
// the uploaded document history.
func NewClient(tc *transport.Client, kv storage.KV) *Client {
	return &Client{http: tc, kv: kv}
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.http.Send(ctx, transport.Get(path))
	if err != nil {
		return err
	}
	return resp.Decode(v)
}

func (c *Client) postJSON(ctx context.Context, path string, body, v any) error {
	env, err := transport.JSON(http.MethodPost, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Send(ctx, env)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return resp.Decode(v)
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// UploadTranscript uploads a PDF read from r under the given file name.
func (c *Client) UploadTranscript(ctx context.Context, name string, r io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("transcript exceeds %d bytes", MaxUploadSize)
	}
	if !isPDF(name, data) {
		return nil, ErrNotPDF
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	env := &transport.Envelope{
		Method:      http.MethodPost,
		Path:        "/transcripts/upload",
		Body:        &body,
		ContentType: mw.FormDataContentType(),
	}
	resp, err := c.http.Send(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	var out UploadResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	log.Printf("Transcript uploaded: id=%d bytes=%d ocr=%v", out.ID, out.TextBytes, out.OCRUsed)
	return &out, nil
}

// UploadTranscriptFile uploads the PDF at path.
func (c *Client) UploadTranscriptFile(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.UploadTranscript(ctx, path, f)
}

func isPDF(name string, data []byte) bool {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return false
	}
	return http.DetectContentType(data) == "application/pdf"
}

// ListTranscripts returns the user's transcripts, newest first.
func (c *Client) ListTranscripts(ctx context.Context) ([]Transcript, error) {
	var out []Transcript
	if err := c.getJSON(ctx, "/transcripts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTranscript returns one transcript with a text preview.
func (c *Client) GetTranscript(ctx context.Context, id int64) (*TranscriptDetail, error) {
	var out TranscriptDetail
	if err := c.getJSON(ctx, "/transcripts/"+itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// RECOMMENDATIONS
// =============================================================================

// CreateRecommendation analyzes a transcript against the user's preference.
// The new recommendation becomes the chat context.
func (c *Client) CreateRecommendation(ctx context.Context, transcriptID int64, preference string) (*Recommendation, error) {
	req := map[string]any{
		"transcript_id": transcriptID,
		"preference":    strings.TrimSpace(preference),
	}
	var out Recommendation
	if err := c.postJSON(ctx, "/recommendations", req, &out); err != nil {
		return nil, fmt.Errorf("recommendation failed: %w", err)
	}

	// "No new courses" replies carry no ID and leave the context alone.
	if out.ID != 0 {
		if err := c.kv.Set(storage.KeyLastRecoID, itoa(out.ID)); err != nil {
			return nil, err
		}
		if err := c.kv.Set(storage.KeyLastTranscriptID, itoa(transcriptID)); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// AnalyzeTranscript uploads a transcript, requests recommendations for it,
// and records the result in the uploaded document history.
func (c *Client) AnalyzeTranscript(ctx context.Context, path, preference string) (*UploadedDoc, error) {
	up, err := c.UploadTranscriptFile(ctx, path)
	if err != nil {
		return nil, err
	}
	reco, err := c.CreateRecommendation(ctx, up.ID, preference)
	if err != nil {
		return nil, err
	}

	doc := UploadedDoc{
		TranscriptID:   up.ID,
		FileName:       filepath.Base(path),
		Recommendation: reco,
		UploadedAt:     time.Now(),
	}
	if err := c.recordUpload(doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListRecommendations returns the stored recommendations.
func (c *Client) ListRecommendations(ctx context.Context) ([]RecommendationRecord, error) {
	var out []RecommendationRecord
	if err := c.getJSON(ctx, "/recommendations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecommendation returns one stored recommendation.
func (c *Client) GetRecommendation(ctx context.Context, id int64) (*RecommendationRecord, error) {
	var out RecommendationRecord
	if err := c.getJSON(ctx, "/recommendations/"+itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveCourse drops a course from a recommendation and returns the courses
// that remain.
func (c *Client) RemoveCourse(ctx context.Context, recoID, courseID int64) ([]Course, error) {
	path := fmt.Sprintf("/recommendations/%d/courses/%d", recoID, courseID)
	resp, err := c.http.Send(ctx, transport.Delete(path))
	if err != nil {
		return nil, err
	}
	var out struct {
		Message string   `json:"message"`
		Courses []Course `json:"courses"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

// =============================================================================
// SCHOLARSHIPS & SUMMARIES
// =============================================================================

// GenerateScholarships suggests scholarships from the latest transcript.
func (c *Client) GenerateScholarships(ctx context.Context) (*ScholarshipResult, error) {
	var out ScholarshipResult
	if err := c.postJSON(ctx, "/scholarships/generate", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateSummary drafts a summary of the latest transcript. It is not saved.
func (c *Client) GenerateSummary(ctx context.Context) (*GeneratedSummary, error) {
	var out GeneratedSummary
	if err := c.postJSON(ctx, "/summaries/generate", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveSummary renders a summary PDF for a recommendation. A zero
// RecommendationID uses the last recommendation.
func (c *Client) SaveSummary(ctx context.Context, req SaveSummaryRequest) (*SavedSummary, error) {
	if req.RecommendationID == 0 {
		id, ok, err := c.LastRecommendationID()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoRecommendation
		}
		req.RecommendationID = id
	}
	var out SavedSummary
	if err := c.postJSON(ctx, "/summaries", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSummaries returns the stored summaries.
func (c *Client) ListSummaries(ctx context.Context) ([]Summary, error) {
	var out []Summary
	if err := c.getJSON(ctx, "/summaries", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadSummary fetches a summary PDF.
func (c *Client) DownloadSummary(ctx context.Context, id int64) ([]byte, error) {
	return c.http.Download(ctx, SummaryDownloadPath(id))
}

// SummaryDownloadPath returns the download path for a summary.
func SummaryDownloadPath(id int64) string {
	return "/summaries/" + itoa(id) + "/download"
}

// DeleteSummary removes a summary and its PDF.
func (c *Client) DeleteSummary(ctx context.Context, id int64) error {
	_, err := c.http.Send(ctx, transport.Delete("/summaries/"+itoa(id)))
	return err
}

// =============================================================================
// WEB SEARCH
// =============================================================================

// Search runs a web search through the service.
func (c *Client) Search(ctx context.Context, query string) ([]WebResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	env := transport.Get("/websearch")
	env.Query = url.Values{"q": {query}}

	resp, err := c.http.Send(ctx, env)
	if err != nil {
		return nil, err
	}
	var out []WebResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// LOCAL STATE
// =============================================================================

// LastRecommendationID returns the recommendation the chat is about.
func (c *Client) LastRecommendationID() (int64, bool, error) {
	return c.storedID(storage.KeyLastRecoID)
}

// LastTranscriptID returns the transcript of the last recommendation.
func (c *Client) LastTranscriptID() (int64, bool, error) {
	return c.storedID(storage.KeyLastTranscriptID)
}

func (c *Client) storedID(key string) (int64, bool, error) {
	raw, ok, err := c.kv.Get(key)
	if err != nil || !ok {
		return 0, false, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("stored %s is not an id: %q", key, raw)
	}
	return id, true, nil
}

// UploadedDocs returns the local upload history, oldest first.
func (c *Client) UploadedDocs() ([]UploadedDoc, error) {
	var docs []UploadedDoc
	if _, err := storage.GetJSON(c.kv, storage.KeyUploadedDocs, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) recordUpload(doc UploadedDoc) error {
	docs, err := c.UploadedDocs()
	if err != nil {
		return err
	}
	return storage.SetJSON(c.kv, storage.KeyUploadedDocs, append(docs, doc))
}

// ClearHistory forgets the chat context and upload history.
func (c *Client) ClearHistory() error {
	return c.kv.Delete(storage.KeyLastRecoID, storage.KeyLastTranscriptID, storage.KeyUploadedDocs)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
