package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/types"
	"github.com/tdesai7/secondbrain-backend/internal/utils"
)

// ExtractionError marks a failed attempt to resolve a source reference into
// text. It is recorded on the content row and retried per queue policy.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type extractionHTTPError struct {
	StatusCode int
}

func (e *extractionHTTPError) Error() string {
	return fmt.Sprintf("http %d", e.StatusCode)
}

// IsRetryableExtractionErr reports whether a failed extract call is worth an
// immediate local retry (timeouts, throttling, upstream 5xx). Structural
// failures like an unrecognizable link or a missing transcript are not.
func IsRetryableExtractionErr(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *extractionHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var extErr *ExtractionError
	if errors.As(err, &extErr) && extErr.Err != nil {
		return IsRetryableExtractionErr(extErr.Err)
	}
	return false
}

// Extractor resolves a source link into plain text for non-note content.
type Extractor interface {
	Extract(ctx context.Context, link string, kind types.ContentKind) (string, error)
}

type extractor struct {
	log        *logger.Logger
	httpClient *http.Client

	innertubeBase string
	oembedBase    string
	clientVersion string
	maxRetries    int
	retryDelay    time.Duration
}

func NewExtractor(log *logger.Logger) Extractor {
	timeoutSec := utils.GetEnvAsInt("EXTRACT_TIMEOUT_SECONDS", 30, log)
	retryDelayMs := utils.GetEnvAsInt("EXTRACT_RETRY_DELAY_MS", 1500, log)
	return &extractor{
		log:           log.With("service", "Extractor"),
		httpClient:    &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		innertubeBase: utils.GetEnv("INNERTUBE_BASE_URL", "https://www.youtube.com", log),
		oembedBase:    utils.GetEnv("OEMBED_BASE_URL", "https://publish.twitter.com", log),
		clientVersion: "2.20250814.09.00",
		maxRetries:    utils.GetEnvAsInt("EXTRACT_MAX_RETRIES", 2, log),
		retryDelay:    time.Duration(retryDelayMs) * time.Millisecond,
	}
}

// Extract makes up to 1+maxRetries passes with an incremental delay between
// them, retrying only transient upstream failures.
func (e *extractor) Extract(ctx context.Context, link string, kind types.ContentKind) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxRetries+1; attempt++ {
		text, err := e.extractOnce(ctx, link, kind)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt > e.maxRetries || !IsRetryableExtractionErr(err) {
			break
		}
		e.log.Warn("Extraction attempt failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.retryDelay * time.Duration(attempt)):
		}
	}
	return "", lastErr
}

func (e *extractor) extractOnce(ctx context.Context, link string, kind types.ContentKind) (string, error) {
	switch kind {
	case types.KindVideo:
		return e.extractVideoTranscript(ctx, link)
	case types.KindSocial:
		return e.extractSocialPost(ctx, link)
	default:
		return "", &ExtractionError{Reason: fmt.Sprintf("unsupported kind %q", kind)}
	}
}

// ----------------------------------------
// Video transcripts (innertube, two calls)
// ----------------------------------------

func (e *extractor) extractVideoTranscript(ctx context.Context, link string) (string, error) {
	videoID := ExtractVideoID(link)
	if videoID == "" {
		return "", &ExtractionError{Reason: "could not extract video id from link"}
	}

	params, err := e.transcriptParams(ctx, videoID)
	if err != nil {
		return "", err
	}
	if params == "" {
		return "", &ExtractionError{Reason: "transcript endpoint not available for video"}
	}

	body := map[string]any{
		"context":         e.innertubeContext(),
		"params":          params,
		"externalVideoId": videoID,
	}
	data, err := e.postInnertube(ctx, "/youtubei/v1/get_transcript?prettyPrint=false", body)
	if err != nil {
		return "", err
	}

	segments, ok := dig(data,
		"actions", 0, "updateEngagementPanelAction", "content", "transcriptRenderer",
		"content", "transcriptSearchPanelRenderer", "body",
		"transcriptSegmentListRenderer", "initialSegments",
	).([]any)
	if !ok || len(segments) == 0 {
		return "", &ExtractionError{Reason: "transcript not available for video"}
	}

	var sb strings.Builder
	for _, seg := range segments {
		runs, ok := dig(seg, "transcriptSegmentRenderer", "snippet", "runs").([]any)
		if !ok {
			continue
		}
		for _, run := range runs {
			if text, ok := dig(run, "text").(string); ok {
				sb.WriteString(text)
			}
		}
		sb.WriteByte(' ')
	}
	transcript := collapseWhitespace(sb.String())
	if transcript == "" {
		return "", &ExtractionError{Reason: "transcript is empty"}
	}
	return transcript, nil
}

func (e *extractor) transcriptParams(ctx context.Context, videoID string) (string, error) {
	body := map[string]any{
		"context": e.innertubeContext(),
		"videoId": videoID,
	}
	data, err := e.postInnertube(ctx, "/youtubei/v1/next?prettyPrint=false", body)
	if err != nil {
		return "", err
	}
	panels, ok := dig(data, "engagementPanels").([]any)
	if !ok {
		return "", nil
	}
	for _, panel := range panels {
		params, ok := dig(panel,
			"engagementPanelSectionListRenderer", "content", "continuationItemRenderer",
			"continuationEndpoint", "getTranscriptEndpoint", "params",
		).(string)
		if ok && params != "" {
			return params, nil
		}
	}
	return "", nil
}

func (e *extractor) innertubeContext() map[string]any {
	return map[string]any{
		"client": map[string]any{
			"hl":            "en-GB",
			"gl":            "IN",
			"clientName":    "WEB",
			"clientVersion": e.clientVersion,
		},
	}
}

func (e *extractor) postInnertube(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, &ExtractionError{Reason: "encode innertube request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.innertubeBase+path, bytes.NewReader(raw))
	if err != nil {
		return nil, &ExtractionError{Reason: "build innertube request", Err: err}
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Youtube-Client-Name", "1")
	req.Header.Set("X-Youtube-Client-Version", e.clientVersion)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &ExtractionError{Reason: "innertube request failed", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &ExtractionError{Reason: "innertube error", Err: &extractionHTTPError{StatusCode: resp.StatusCode}}
	}
	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &ExtractionError{Reason: "decode innertube response", Err: err}
	}
	return data, nil
}

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID pulls the 11-char video id out of the usual link shapes
// (youtu.be short links, /watch?v=, /shorts/, /embed/). Empty when the link
// is not recognizable.
func ExtractVideoID(link string) string {
	s := strings.TrimSpace(link)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	if host == "youtu.be" {
		if len(parts) > 0 && videoIDRe.MatchString(parts[0]) {
			return parts[0]
		}
		return ""
	}
	if strings.HasSuffix(host, "youtube.com") || strings.HasSuffix(host, "youtube-nocookie.com") {
		if len(parts) >= 2 && (parts[0] == "shorts" || parts[0] == "embed" || parts[0] == "v") {
			if videoIDRe.MatchString(parts[1]) {
				return parts[1]
			}
			return ""
		}
		if v := u.Query().Get("v"); v != "" && videoIDRe.MatchString(v) {
			return v
		}
	}
	return ""
}

// ----------------------------------------
// Social posts (oEmbed)
// ----------------------------------------

func (e *extractor) extractSocialPost(ctx context.Context, link string) (string, error) {
	endpoint := e.oembedBase + "/oembed?omit_script=1&url=" + url.QueryEscape(strings.TrimSpace(link))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &ExtractionError{Reason: "build oembed request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", &ExtractionError{Reason: "oembed request failed", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &ExtractionError{Reason: "oembed error", Err: &extractionHTTPError{StatusCode: resp.StatusCode}}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &ExtractionError{Reason: "read oembed response", Err: err}
	}
	var body struct {
		HTML       string `json:"html"`
		AuthorName string `json:"author_name"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", &ExtractionError{Reason: "decode oembed response", Err: err}
	}

	text := StripHTML(body.HTML)
	if text == "" {
		return "", &ExtractionError{Reason: "post has no extractable text"}
	}
	if body.AuthorName != "" {
		text = body.AuthorName + ": " + text
	}
	return text, nil
}

var (
	tagRe        = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func StripHTML(s string) string {
	s = strings.ReplaceAll(s, "<br>", " ")
	s = strings.ReplaceAll(s, "</p>", " ")
	s = tagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	return collapseWhitespace(s)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
