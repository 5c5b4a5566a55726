// Package cover resolves cover artwork for the presence large image.
package cover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/bytedance/sonic"
	"github.com/hay-kot/nowplaying/internal/core/settings"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultImage is the asset key of the application's built-in image.
const DefaultImage = "default"

var (
	ErrEmptyQuery = errors.New("empty cover query")
	ErrNoRelease  = errors.New("no matching release")
	ErrNoArtwork  = errors.New("no release with cover artwork")
)

const (
	DefaultBaseURL      = "https://musicbrainz.org"
	DefaultCoverBaseURL = "https://coverartarchive.org"
	DefaultUserAgent    = "nowplaying/dev ( https://github.com/hay-kot/nowplaying )"
	DefaultRate         = 1.0
	DefaultCacheTTL     = 6 * time.Hour
	DefaultSearchLimit  = 5

	maxBody = 4 << 20
)

// Config configures a Resolver. Zero values fall back to the Default constants,
// except Rate and CacheTTL where a negative value disables the limiter or cache.
type Config struct {
	BaseURL      string
	CoverBaseURL string
	UserAgent    string
	Rate         float64
	CacheTTL     time.Duration
	SearchLimit  int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.CoverBaseURL == "" {
		c.CoverBaseURL = DefaultCoverBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Rate == 0 {
		c.Rate = DefaultRate
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = DefaultSearchLimit
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.CoverBaseURL = strings.TrimRight(c.CoverBaseURL, "/")
	return c
}

// cached is a settled lookup. The zero value means "not cached".
type cached struct {
	settled bool
	url     string
	err     error
}

// Resolver maps an album query to a cover image URL using MusicBrainz and
// the Cover Art Archive.
type Resolver struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	cache   *ttlworker.Cache[string, cached]
	log     zerolog.Logger
}

// New creates a Resolver. A nil client uses NewHTTPClient.
func New(cfg Config, client *http.Client, logger zerolog.Logger) *Resolver {
	cfg = cfg.withDefaults()
	if client == nil {
		client = NewHTTPClient()
	}

	r := &Resolver{
		cfg:    cfg,
		client: client,
		log:    logger.With().Str("component", "cover").Logger(),
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	if cfg.CacheTTL > 0 {
		r.cache = ttlworker.NewCache[string, cached](cfg.CacheTTL)
	}
	return r
}

// Resolve returns the large image for query. CoverNone always yields
// DefaultImage without touching the network.
func (r *Resolver) Resolve(ctx context.Context, query string, source settings.CoverSource) (string, error) {
	if source != settings.CoverMusicBrainz {
		return DefaultImage, nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	if r.cache != nil {
		if hit := r.cache.Get(query); hit.settled {
			r.log.Trace().Str("query", query).Msg("cover cache hit")
			return hit.url, hit.err
		}
	}

	u, err := r.lookup(ctx, query)
	if err == nil || errors.Is(err, ErrNoRelease) || errors.Is(err, ErrNoArtwork) {
		if r.cache != nil {
			r.cache.Set(query, cached{settled: true, url: u, err: err})
		}
	}
	return u, err
}

func (r *Resolver) lookup(ctx context.Context, query string) (string, error) {
	ids, err := r.searchReleases(ctx, query)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", ErrNoRelease
	}

	for _, id := range ids {
		ok, err := r.hasArtwork(ctx, id)
		if err != nil {
			return "", err
		}
		if ok {
			r.log.Debug().Str("query", query).Str("release", id).Msg("cover resolved")
			return r.coverURL(id), nil
		}
	}

	return "", ErrNoArtwork
}

type searchResponse struct {
	Releases []struct {
		ID string `json:"id"`
	} `json:"releases"`
}

type releaseResponse struct {
	CoverArtArchive struct {
		Artwork bool `json:"artwork"`
	} `json:"cover-art-archive"`
}

func (r *Resolver) searchReleases(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("type", "album")
	params.Set("limit", strconv.Itoa(r.cfg.SearchLimit))

	var resp searchResponse
	if err := r.getJSON(ctx, r.cfg.BaseURL+"/ws/2/release?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search releases: %w", err)
	}

	ids := make([]string, 0, len(resp.Releases))
	for _, rel := range resp.Releases {
		if rel.ID != "" {
			ids = append(ids, rel.ID)
		}
	}
	return ids, nil
}

func (r *Resolver) hasArtwork(ctx context.Context, id string) (bool, error) {
	var resp releaseResponse
	endpoint := r.cfg.BaseURL + "/ws/2/release/" + url.PathEscape(id) + "?fmt=json"
	if err := r.getJSON(ctx, endpoint, &resp); err != nil {
		return false, fmt.Errorf("get release %s: %w", id, err)
	}
	return resp.CoverArtArchive.Artwork, nil
}

func (r *Resolver) coverURL(id string) string {
	return r.cfg.CoverBaseURL + "/release/" + url.PathEscape(id) + "/front-250"
}

func (r *Resolver) getJSON(ctx context.Context, endpoint string, v any) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
