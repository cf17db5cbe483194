package podcast

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/minato/airwave/internal/model"
	"github.com/minato/airwave/internal/repository"
	"github.com/minato/airwave/internal/security"
)

// ImporterConfig はFeedImporterの設定。
type ImporterConfig struct {
	Timeout     time.Duration // フィード取得のタイムアウト
	MaxBodySize int64         // レスポンスボディの最大読み取りサイズ
}

// FeedImporter は外部RSSフィードからエピソードを取り込む。
// フロー: SSRF検証 → フィード取得 → （HTMLの場合は自動検出） →
// パース → サニタイズ → GUIDで冪等UPSERT。
type FeedImporter struct {
	config      ImporterConfig
	podcastRepo repository.PodcastRepository
	ssrfGuard   security.SSRFGuardService
	sanitizer   security.ContentSanitizerService
}

// コンパイル時のインターフェース実装チェック
var _ Importer = (*FeedImporter)(nil)

// NewFeedImporter はFeedImporterの新しいインスタンスを生成する。
func NewFeedImporter(
	config ImporterConfig,
	podcastRepo repository.PodcastRepository,
	ssrfGuard security.SSRFGuardService,
	sanitizer security.ContentSanitizerService,
) *FeedImporter {
	return &FeedImporter{
		config:      config,
		podcastRepo: podcastRepo,
		ssrfGuard:   ssrfGuard,
		sanitizer:   sanitizer,
	}
}

// ImportFeed はポッドキャストのフィードURLからエピソードを取り込み、
// 取り込んだエピソード数を返す。フィードURLがHTMLページを指している
// 場合はheadタグのalternateリンクからRSSフィードを自動検出する。
func (im *FeedImporter) ImportFeed(ctx context.Context, p *model.Podcast) (int, error) {
	if err := im.ssrfGuard.ValidateURL(p.FeedURL); err != nil {
		slog.Warn("feed URL blocked",
			slog.String("podcast_id", p.ID),
			slog.String("error", err.Error()),
		)
		return 0, model.NewSSRFBlockedError()
	}

	client := im.ssrfGuard.NewSafeClient(im.config.Timeout, im.config.MaxBodySize)

	body, contentType, err := im.fetch(ctx, client, p.FeedURL)
	if err != nil {
		return 0, model.NewFeedImportFailedError(err.Error())
	}

	// HTMLページが指定された場合はフィードリンクを自動検出して再取得
	if isHTMLContentType(contentType) {
		feedURL, ok := discoverFeedURL(body, p.FeedURL)
		if !ok {
			return 0, model.NewFeedImportFailedError("ページからRSSフィードを検出できませんでした")
		}

		if err := im.ssrfGuard.ValidateURL(feedURL); err != nil {
			return 0, model.NewSSRFBlockedError()
		}

		body, _, err = im.fetch(ctx, client, feedURL)
		if err != nil {
			return 0, model.NewFeedImportFailedError(err.Error())
		}
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return 0, model.NewFeedImportFailedError(fmt.Sprintf("フィードの解析に失敗: %v", err))
	}

	count := 0
	for _, item := range parsed.Items {
		ep, ok := im.buildEpisode(p.ID, item)
		if !ok {
			continue
		}
		if err := im.podcastRepo.UpsertEpisode(ctx, ep); err != nil {
			return count, fmt.Errorf("failed to upsert episode: %w", err)
		}
		count++
	}

	slog.Info("feed imported",
		slog.String("podcast_id", p.ID),
		slog.String("feed_title", parsed.Title),
		slog.Int("episodes", count),
	)

	return count, nil
}

// fetch はURLからレスポンスボディとContent-Typeを取得する。
func (im *FeedImporter) fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("リクエストの作成に失敗: %v", err)
	}
	req.Header.Set("User-Agent", "Airwave/1.0 Podcast Importer")
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml, text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("フィードの取得に失敗: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("フィードの取得に失敗: ステータスコード %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, im.config.MaxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("レスポンスの読み取りに失敗: %v", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// buildEpisode はフィードアイテムからエピソードを構築する。
// enclosure（音声ファイル）のないアイテムはスキップする。
func (im *FeedImporter) buildEpisode(podcastID string, item *gofeed.Item) (*model.PodcastEpisode, bool) {
	audioURL := audioEnclosureURL(item)
	if audioURL == "" {
		return nil, false
	}

	guid := item.GUID
	if guid == "" {
		// GUIDのないフィードではリンクで同一性を代替する
		guid = item.Link
	}
	if guid == "" {
		guid = audioURL
	}

	publishedAt := time.Now()
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	}

	return &model.PodcastEpisode{
		ID:          uuid.New().String(),
		PodcastID:   podcastID,
		GUID:        guid,
		Title:       strings.TrimSpace(item.Title),
		Description: im.sanitizer.Sanitize(item.Description),
		AudioURL:    audioURL,
		Duration:    itunesDurationSeconds(item),
		PublishedAt: publishedAt,
		CreatedAt:   time.Now(),
	}, true
}

// audioEnclosureURL はアイテムから音声enclosureのURLを取り出す。
func audioEnclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "audio/") || enc.Type == "" {
			return enc.URL
		}
	}
	return ""
}

// itunesDurationSeconds はiTunes拡張のdurationを秒数に変換する。
// "HH:MM:SS"、"MM:SS"、秒数の3形式に対応する。変換できない場合は0を返す。
func itunesDurationSeconds(item *gofeed.Item) int {
	if item.ITunesExt == nil || item.ITunesExt.Duration == "" {
		return 0
	}

	raw := strings.TrimSpace(item.ITunesExt.Duration)
	parts := strings.Split(raw, ":")

	switch len(parts) {
	case 1:
		sec, err := strconv.Atoi(parts[0])
		if err != nil || sec < 0 {
			return 0
		}
		return sec
	case 2, 3:
		total := 0
		for _, part := range parts {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 {
				return 0
			}
			total = total*60 + n
		}
		return total
	default:
		return 0
	}
}

// isHTMLContentType はContent-TypeがHTMLかどうかを判定する。
func isHTMLContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	return strings.Contains(strings.ToLower(mediaType), "html")
}

// discoverFeedURL はHTMLのheadタグからRSS/Atomフィードリンクを検出する。
// rel="alternate"かつフィードContent-Typeのlink要素を対象とし、
// 相対URLはbaseURLを基準に絶対URLへ解決する。最初に見つかった
// リンクを返す。
func discoverFeedURL(htmlBody []byte, baseURL string) (string, bool) {
	baseU, err := url.Parse(baseURL)
	if err != nil {
		return "", false
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return "", false

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "head" {
				inHead = true
				continue
			}
			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return "", false
			}
			if !inHead || tagName != "link" || !hasAttr {
				continue
			}

			var rel, linkType, href string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "type":
					linkType = strings.ToLower(string(val))
				case "href":
					href = string(val)
				}
				if !more {
					break
				}
			}

			if rel != "alternate" || href == "" {
				continue
			}
			if linkType != "application/rss+xml" && linkType != "application/atom+xml" {
				continue
			}

			ref, err := url.Parse(href)
			if err != nil {
				continue
			}
			return baseU.ResolveReference(ref).String(), true

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return "", false
			}
		}
	}
}
