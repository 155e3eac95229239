package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/anatolykoptev/ytwatch/internal/engine"
)

// ErrUnavailable marks a video that cannot be resolved (private, removed,
// region-locked or an upcoming premiere).
var ErrUnavailable = errors.New("video unavailable")

// resolve turns a search reference into a full record. The Innertube player
// is tried first; the watch page is the fallback.
func (y *YouTube) resolve(ctx context.Context, ref engine.VideoRef) (engine.CandidateRecord, error) {
	engine.IncrResolve()
	rec, err := y.resolvePlayer(ctx, ref.ID)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, ErrUnavailable) {
		return engine.CandidateRecord{}, err
	}
	engine.IncrResolveFallback()
	rec, werr := y.resolveWatchPage(ctx, ref.ID)
	if werr != nil {
		return engine.CandidateRecord{}, fmt.Errorf("resolve %s: player: %v; watch page: %w", ref.ID, err, werr)
	}
	return rec, nil
}

// resolvePlayer reads videoDetails and microformat from the /player endpoint.
func (y *YouTube) resolvePlayer(ctx context.Context, videoID string) (engine.CandidateRecord, error) {
	visitor := generateVisitorData()
	body, err := y.postInnerTubeWEB(ctx, y.playerURL, playerReq{
		VideoID:        videoID,
		Context:        ytWebContext(visitor),
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}, visitor)
	if err != nil {
		return engine.CandidateRecord{}, err
	}

	var pr playerResp
	if err := json.Unmarshal(body, &pr); err != nil {
		return engine.CandidateRecord{}, fmt.Errorf("decode player response: %w", err)
	}
	if ps := pr.PlayabilityStatus; ps != nil && ps.Status != "" && ps.Status != "OK" {
		return engine.CandidateRecord{}, fmt.Errorf("%w: %s %s", ErrUnavailable, ps.Status, ps.Reason)
	}
	if pr.VideoDetails == nil || pr.VideoDetails.Title == "" {
		return engine.CandidateRecord{}, fmt.Errorf("player response for %s has no videoDetails", videoID)
	}

	rec := engine.CandidateRecord{
		Title:    pr.VideoDetails.Title,
		Uploader: pr.VideoDetails.Author,
		VideoID:  videoID,
		URL:      engine.WatchURL(videoID),
	}
	if mf := pr.Microformat; mf != nil {
		r := mf.PlayerMicroformatRenderer
		if rec.Uploader == "" {
			rec.Uploader = r.OwnerChannelName
		}
		date := r.UploadDate
		if date == "" {
			date = r.PublishDate
		}
		if d, ok := engine.ParseUploadDate(date, y.loc); ok {
			rec.UploadDate = d
		}
	}
	return rec, nil
}

// resolveWatchPage scrapes the schema.org microdata on the watch page.
func (y *YouTube) resolveWatchPage(ctx context.Context, videoID string) (engine.CandidateRecord, error) {
	pageURL := y.watchURL + "?v=" + videoID
	body, err := y.fetchPage(ctx, pageURL)
	if err != nil {
		return engine.CandidateRecord{}, fmt.Errorf("watch page: %w", err)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return engine.CandidateRecord{}, fmt.Errorf("parse watch page: %w", err)
	}
	return parseWatchPage(goquery.NewDocumentFromNode(root), videoID, y.loc)
}

func parseWatchPage(doc *goquery.Document, videoID string, loc *time.Location) (engine.CandidateRecord, error) {
	attr := func(selector string) string {
		v, _ := doc.Find(selector).First().Attr("content")
		return strings.TrimSpace(v)
	}

	title := attr(`meta[name="title"]`)
	if title == "" {
		title = attr(`meta[property="og:title"]`)
	}
	if title == "" {
		return engine.CandidateRecord{}, fmt.Errorf("%w: watch page for %s has no title", ErrUnavailable, videoID)
	}

	rec := engine.CandidateRecord{
		Title:    title,
		Uploader: attr(`[itemprop="author"] [itemprop="name"]`),
		VideoID:  videoID,
		URL:      engine.WatchURL(videoID),
	}
	date := attr(`meta[itemprop="uploadDate"]`)
	if date == "" {
		date = attr(`meta[itemprop="datePublished"]`)
	}
	if d, ok := engine.ParseUploadDate(date, loc); ok {
		rec.UploadDate = d
	}
	return rec, nil
}
