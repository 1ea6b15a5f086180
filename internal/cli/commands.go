// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Transcript, recommendation, scholarship, summary, and search
// commands.
//
// Examples:
//   edusphere recommend transcript.pdf --preference "machine learning"
//   edusphere courses show 12
//   edusphere courses remove 12 4
//   edusphere summary save --scholarships
//   edusphere summary download 3 --output ~/summary.pdf

package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edusphere/edusphere-tui/internal/api"
	"github.com/edusphere/edusphere-tui/internal/util"
)

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// HandleUpload uploads a transcript without analyzing it.
func HandleUpload(ctx context.Context, env *Env, args Args) error {
	if err := env.Auth.RequireSession(); err != nil {
		return err
	}
	p := args.Parser()
	path := p.Positional(0)
	if path == "" {
		return ErrMissingArgument("file", "edusphere upload transcript.pdf")
	}

	res, err := env.API.UploadTranscriptFile(ctx, path)
	if err != nil {
		return err
	}
	if env.JSON {
		return writeJSON(env.Out, res)
	}
	env.printf("%s Uploaded %s as transcript %d\n", SuccessStyle.Render("✓"), filepath.Base(path), res.ID)
	if res.OCRUsed {
		env.printf("%s\n", DimStyle.Render("Text was recovered with OCR; check the preview with 'edusphere transcripts show "+strconv.FormatInt(res.ID, 10)+"'."))
	}
	return nil
}

// HandleTranscripts lists transcripts or shows one.
func HandleTranscripts(ctx context.Context, env *Env, args Args) error {
	if err := env.Auth.RequireSession(); err != nil {
		return err
	}
	p := args.Parser()

	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		list, err := env.API.ListTranscripts(ctx)
		if err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, list)
		}
		if len(list) == 0 {
			env.printf("No transcripts yet. Upload one with 'edusphere upload FILE'.\n")
			return nil
		}
		t := newTable(6, 34, 0)
		t.add("ID", "FILE", "UPLOADED")
		for _, tr := range list {
			t.add(strconv.FormatInt(tr.ID, 10), filepath.Base(tr.FilePath), tr.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		t.write(env.Out)
		return nil

	case "show", "get":
		id, err := transcriptID(env, p.Positional(1))
		if err != nil {
			return err
		}
		tr, err := env.API.GetTranscript(ctx, id)
		if err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, tr)
		}
		fmt.Fprintln(env.Out, RenderLabel("Transcript")+strconv.FormatInt(tr.ID, 10))
		fmt.Fprintln(env.Out, RenderLabel("File")+filepath.Base(tr.FilePath))
		fmt.Fprintln(env.Out, RenderLabel("Uploaded")+tr.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintln(env.Out)
		fmt.Fprintln(env.Out, tr.TextPreview)
		return nil

	case "history":
		docs, err := env.API.UploadedDocs()
		if err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, docs)
		}
		if len(docs) == 0 {
			env.printf("Nothing analyzed on this machine yet.\n")
			return nil
		}
		t := newTable(6, 34, 8, 0)
		t.add("ID", "FILE", "COURSES", "ANALYZED")
		for _, d := range docs {
			courses := 0
			if d.Recommendation != nil {
				courses = len(d.Recommendation.Courses)
			}
			t.add(strconv.FormatInt(d.TranscriptID, 10), d.FileName, strconv.Itoa(courses), d.UploadedAt.Local().Format("2006-01-02 15:04"))
		}
		t.write(env.Out)
		return nil

	default:
		return ErrUnknownSubcommand("transcripts", sub, "list", "show", "history")
	}
}

// =============================================================================
// RECOMMENDATIONS
// =============================================================================

// HandleRecommend analyzes a new file or an uploaded transcript.
func HandleRecommend(ctx context.Context, env *Env, args Args) error {
	if err := env.Auth.RequireSession(); err != nil {
		return err
	}
	p := args.Parser()
	pref := p.Flag("preference", "p")

	var reco *api.Recommendation
	switch {
	case p.Flag("transcript", "t") != "":
		id, err := ParseID(p.Flag("transcript", "t"), "transcript id")
		if err != nil {
			return err
		}
		if reco, err = env.API.CreateRecommendation(ctx, id, pref); err != nil {
			return err
		}
	case p.Positional(0) != "":
		doc, err := env.API.AnalyzeTranscript(ctx, p.Positional(0), pref)
		if err != nil {
			return err
		}
		reco = doc.Recommendation
	default:
		return ErrMissingArgument("file", "edusphere recommend transcript.pdf --preference \"data science\"")
	}

	if env.JSON {
		return writeJSON(env.Out, reco)
	}
	if reco.ID == 0 {
		msg := reco.Message
		if msg == "" {
			msg = "No new courses available."
		}
		env.printf("%s\n", WarningStyle.Render(msg))
		return nil
	}
	env.printf("%s Recommendation %d ready. Ask about it with 'edusphere chat'.\n\n", SuccessStyle.Render("✓"), reco.ID)
	printCourses(env, reco.Courses)
	if len(reco.Scholarships) > 0 {
		fmt.Fprintln(env.Out)
		printScholarships(env, reco.Scholarships)
	}
	return nil
}

// HandleCourses lists recommendations, shows one, or removes a course.
func HandleCourses(ctx context.Context, env *Env, args Args) error {
	if err := env.Auth.RequireSession(); err != nil {
		return err
	}
	p := args.Parser()

	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		list, err := env.API.ListRecommendations(ctx)
		if err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, list)
		}
		if len(list) == 0 {
			env.printf("No recommendations yet. Run 'edusphere recommend FILE'.\n")
			return nil
		}
		t := newTable(6, 11, 8, 0)
		t.add("ID", "TRANSCRIPT", "COURSES", "CREATED")
		for _, r := range list {
			transcript := "-"
			if r.TranscriptID.Valid {
				transcript = strconv.FormatInt(r.TranscriptID.Int64, 10)
			}
			count := "?"
			if courses, _, err := r.Contents(); err == nil {
				count = strconv.Itoa(len(courses))
			}
			t.add(strconv.FormatInt(r.ID, 10), transcript, count, r.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		t.write(env.Out)
		return nil

	case "show", "get":
		id, err := courseRecoID(env, p.Positional(1))
		if err != nil {
			return err
		}
		rec, err := env.API.GetRecommendation(ctx, id)
		if err != nil {
			return err
		}
		courses, scholarships, err := rec.Contents()
		if err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, map[string]any{"id": rec.ID, "courses": courses, "scholarships": scholarships})
		}
		printCourses(env, courses)
		if len(scholarships) > 0 {
			fmt.Fprintln(env.Out)
			printScholarships(env, scholarships)
		}
		return nil

	case "remove", "rm":
		recoID, err := ParseID(p.Positional(1), "recommendation id")
		if err != nil {
			return err
		}
		courseID, err := ParseID(p.Positional(2), "course id")
		if err != nil {
			return err
		}
		remaining, err := env.API.RemoveCourse(ctx, recoID, courseID)
		if err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, remaining)
		}
		env.printf("%s Removed course %d\n\n", SuccessStyle.Render("✓"), courseID)
		printCourses(env, remaining)
		return nil

	default:
		return ErrUnknownSubcommand("courses", sub, "list", "show", "remove")
	}
}

// courseRecoID parses s, defaulting to the last recommendation.
// transcriptID parses s, falling back to the transcript of the last
// recommendation.
func transcriptID(env *Env, s string) (int64, error) {
	if s != "" {
		return ParseID(s, "transcript id")
	}
	id, ok, err := env.API.LastTranscriptID()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrMissingArgument("transcript id", "edusphere transcripts show 3")
	}
	return id, nil
}

func courseRecoID(env *Env, s string) (int64, error) {
	if s != "" {
		return ParseID(s, "recommendation id")
	}
	id, ok, err := env.API.LastRecommendationID()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, api.ErrNoRecommendation
	}
	return id, nil
}

func printCourses(env *Env, courses []api.Course) {
	if len(courses) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("No courses."))
		return
	}
	t := newTable(4, 40, 6, 0)
	t.add("ID", "COURSE", "MATCH", "TYPE")
	for _, c := range courses {
		id := "-"
		if c.CourseID != 0 {
			id = strconv.FormatInt(c.CourseID, 10)
		}
		t.add(id, c.Label(), percent(c.Match), c.Type)
	}
	t.write(env.Out)
}

func printScholarships(env *Env, list []api.Scholarship) {
	t := newTable(40, 6, 0)
	t.add("SCHOLARSHIP", "MATCH", "LINK")
	for _, s := range list {
		t.add(s.Title, percent(s.Match), s.Link)
	}
	t.write(env.Out)
}

// =============================================================================
// SCHOLARSHIPS
// =============================================================================

// HandleScholarships suggests scholarships for the latest transcript.
func HandleScholarships(ctx context.Context, env *Env, args Args) error {
	if err := env.Auth.RequireSession(); err != nil {
		return err
	}
	res, err := env.API.GenerateScholarships(ctx)
	if err != nil {
		return err
	}
	if env.JSON {
		return writeJSON(env.Out, res)
	}
	if len(res.Scholarships) == 0 {
		env.printf("No scholarships matched.\n")
		return nil
	}
	printScholarships(env, res.Scholarships)
	return nil
}

// =============================================================================
// SUMMARIES
// =============================================================================

// HandleSummary generates, saves, lists, downloads, and deletes summaries.
func HandleSummary(ctx context.Context, env *Env, args Args) error {
	if err := env.Auth.RequireSession(); err != nil {
		return err
	}
	p := args.Parser()

	switch sub := p.Subcommand(); sub {
	case "", "generate", "gen":
		sum, err := env.API.GenerateSummary(ctx)
		if err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, sum)
		}
		fmt.Fprintln(env.Out, renderMarkdown(sum.SummaryText, env.Config.UI.WordWrap))
		return nil

	case "save":
		req := api.SaveSummaryRequest{
			SummaryText:         p.Flag("text"),
			IncludeScholarships: p.BoolFlag("scholarships"),
		}
		if s := p.Flag("reco", "recommendation"); s != "" {
			id, err := ParseID(s, "recommendation id")
			if err != nil {
				return err
			}
			req.RecommendationID = id
		}
		if strings.TrimSpace(req.SummaryText) == "" {
			sum, err := env.API.GenerateSummary(ctx)
			if err != nil {
				return err
			}
			req.SummaryText = sum.SummaryText
		}
		saved, err := env.API.SaveSummary(ctx, req)
		if err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, saved)
		}
		env.printf("%s Saved summary %d. Download it with 'edusphere summary download %d'.\n",
			SuccessStyle.Render("✓"), saved.ID, saved.ID)
		return nil

	case "list", "ls":
		list, err := env.API.ListSummaries(ctx)
		if err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, list)
		}
		if len(list) == 0 {
			env.printf("No saved summaries.\n")
			return nil
		}
		t := newTable(6, 6, 17, 0)
		t.add("ID", "RECO", "CREATED", "SUMMARY")
		for _, s := range list {
			reco := "-"
			if s.RecommendationID.Valid {
				reco = strconv.FormatInt(s.RecommendationID.Int64, 10)
			}
			t.add(strconv.FormatInt(s.ID, 10), reco, s.CreatedAt.Local().Format("2006-01-02 15:04"),
				util.TruncateWidth(util.SingleLine(s.SummaryText.String), 50))
		}
		t.write(env.Out)
		return nil

	case "download", "dl":
		id, err := ParseID(p.Positional(1), "summary id")
		if err != nil {
			return err
		}
		data, err := env.API.DownloadSummary(ctx, id)
		if err != nil {
			return err
		}
		out := p.Flag("output", "o")
		if out == "" {
			out = fmt.Sprintf("summary_%d.pdf", id)
		}
		if err := util.AtomicWriteFile(out, data, 0644); err != nil {
			return NewCommandError("summary", "download", "could not write "+out, err)
		}
		if env.JSON {
			return writeJSON(env.Out, map[string]any{"id": id, "path": out, "bytes": len(data)})
		}
		env.printf("%s Saved %s (%d bytes)\n", SuccessStyle.Render("✓"), out, len(data))
		return nil

	case "delete", "rm":
		id, err := ParseID(p.Positional(1), "summary id")
		if err != nil {
			return err
		}
		if !p.BoolFlag("confirm", "y") {
			return NewValidationError("confirm", "", "deleting a summary needs --confirm")
		}
		if err := env.API.DeleteSummary(ctx, id); err != nil {
			return err
		}
		if env.JSON {
			return writeJSON(env.Out, map[string]any{"id": id, "deleted": true})
		}
		env.printf("%s Deleted summary %d\n", SuccessStyle.Render("✓"), id)
		return nil

	default:
		return ErrUnknownSubcommand("summary", sub, "generate", "save", "list", "download", "delete")
	}
}

// =============================================================================
// SEARCH
// =============================================================================

// HandleSearch runs a web search through the service.
func HandleSearch(ctx context.Context, env *Env, args Args) error {
	if err := env.Auth.RequireSession(); err != nil {
		return err
	}
	query := JoinPositionalArgs(args.Parser(), 0)
	if strings.TrimSpace(query) == "" {
		return ErrMissingArgument("query", "edusphere search \"data science scholarships\"")
	}

	results, err := env.API.Search(ctx, query)
	if err != nil {
		return err
	}
	if env.JSON {
		return writeJSON(env.Out, results)
	}
	if len(results) == 0 {
		env.printf("No results.\n")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(env.Out, "%d. %s\n", i+1, TitleStyle.Render(r.Title))
		fmt.Fprintf(env.Out, "   %s\n", DimStyle.Render(r.URL))
		if r.Snippet != "" {
			fmt.Fprintf(env.Out, "   %s\n", util.TruncateWidth(util.SingleLine(r.Snippet), 100))
		}
	}
	return nil
}
