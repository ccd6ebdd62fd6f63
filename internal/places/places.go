// Package places finds real-world points of interest to hide evidence at.
// It queries the Google Places Nearby Search API, caches pools of candidates
// in Redis, and synthesizes believable spots when no API key is configured
// so local development needs no external services.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/mystreets/gumshoe/internal/geo"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	cacheTTL       = 30 * time.Minute
	poolLimit      = 30
	perCategory    = 3

	// Evidence spots closer together than this make the walk trivial.
	minSpacingM = 150.0
)

// Google place types worth hiding evidence at, mapped to the coarser
// categories the rest of the game uses.
var searchTypes = []struct {
	googleType string
	category   string
}{
	{"park", "park"},
	{"tourist_attraction", "landmark"},
	{"museum", "landmark"},
	{"library", "landmark"},
	{"cafe", "cafe"},
	{"restaurant", "restaurant"},
	{"train_station", "station"},
}

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// Redis caches candidate pools per area. Nil disables caching.
	Redis  *redis.Client
	Logger *slog.Logger
}

type Finder struct {
	cfg   Config
	group singleflight.Group
}

func NewFinder(cfg Config) *Finder {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Finder{cfg: cfg}
}

// Nearby returns a pool of candidate POIs around center. The pool is cached
// for a while and shared between concurrent callers asking for the same area.
func (f *Finder) Nearby(ctx context.Context, center gumshoe.Location, radiusM float64) ([]gumshoe.POI, error) {
	key := fmt.Sprintf("places:%.4f,%.4f:%d", center.Lat, center.Lng, int(radiusM))

	if pois, ok := f.cacheGet(ctx, key); ok {
		return pois, nil
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		if pois, ok := f.cacheGet(ctx, key); ok {
			return pois, nil
		}
		pois := f.fetch(ctx, center, radiusM)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f.cacheSet(ctx, key, pois)
		return pois, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]gumshoe.POI), nil
}

// FindPlacements picks spots for count evidence items, spaced apart where
// the area allows, each tagged with a suggested importance.
func (f *Finder) FindPlacements(ctx context.Context, center gumshoe.Location, count int, radiusM float64) ([]gumshoe.Placement, error) {
	pool, err := f.Nearby(ctx, center, radiusM)
	if err != nil {
		return nil, err
	}
	if len(pool) < count {
		pool = topUp(pool, synthesize(center, radiusM))
	}

	picked := selectSpaced(pool, count)
	placements := make([]gumshoe.Placement, len(picked))
	for i, poi := range picked {
		placements[i] = gumshoe.Placement{
			POI:                 poi,
			SuggestedImportance: suggestedImportance(i),
		}
	}
	return placements, nil
}

// fetch queries the Places API. Any trouble degrades to synthetic spots, the
// same way the game runs with no key at all.
func (f *Finder) fetch(ctx context.Context, center gumshoe.Location, radiusM float64) []gumshoe.POI {
	if strings.TrimSpace(f.cfg.APIKey) == "" {
		return synthesize(center, radiusM)
	}

	var pool []gumshoe.POI
	seen := map[string]bool{}
	for _, st := range searchTypes {
		results, err := f.search(ctx, center, radiusM, st.googleType)
		if err != nil {
			f.cfg.Logger.Warn("places lookup failed", "type", st.googleType, "error", err)
			continue
		}
		for _, p := range results {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			p.Category = st.category
			pool = append(pool, p)
			if len(pool) >= poolLimit {
				break
			}
		}
		if len(pool) >= poolLimit {
			break
		}
	}

	if len(pool) == 0 {
		f.cfg.Logger.Warn("no places found, using synthetic spots",
			"lat", center.Lat, "lng", center.Lng)
		return synthesize(center, radiusM)
	}
	sortByDistance(pool, center)
	return pool
}

func (f *Finder) search(ctx context.Context, center gumshoe.Location, radiusM float64, googleType string) ([]gumshoe.POI, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	q.Set("radius", fmt.Sprintf("%d", int(radiusM)))
	q.Set("type", googleType)
	q.Set("key", f.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build places request: %w", err)
	}
	res, err := f.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("places request status %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
	}

	var payload struct {
		Status  string `json:"status"`
		Results []struct {
			Name     string `json:"name"`
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places status %s", payload.Status)
	}

	var pois []gumshoe.POI
	for _, r := range payload.Results {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		pois = append(pois, gumshoe.POI{
			Name:     r.Name,
			Location: gumshoe.Location{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		})
		if len(pois) >= perCategory {
			break
		}
	}
	return pois, nil
}

func (f *Finder) cacheGet(ctx context.Context, key string) ([]gumshoe.POI, bool) {
	if f.cfg.Redis == nil {
		return nil, false
	}
	b, err := f.cfg.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		f.cfg.Logger.Warn("places cache read failed", "error", err)
		return nil, false
	}
	var pois []gumshoe.POI
	if err := json.Unmarshal(b, &pois); err != nil {
		return nil, false
	}
	return pois, true
}

func (f *Finder) cacheSet(ctx context.Context, key string, pois []gumshoe.POI) {
	if f.cfg.Redis == nil {
		return
	}
	b, err := json.Marshal(pois)
	if err != nil {
		return
	}
	if err := f.cfg.Redis.Set(ctx, key, b, cacheTTL).Err(); err != nil {
		f.cfg.Logger.Warn("places cache write failed", "error", err)
	}
}

// selectSpaced shuffles the pool and greedily keeps spots at least
// minSpacingM apart, relaxing the constraint if the area is too dense to
// satisfy it.
func selectSpaced(pool []gumshoe.POI, count int) []gumshoe.POI {
	if len(pool) <= count {
		return pool
	}

	shuffled := make([]gumshoe.POI, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	selected := []gumshoe.POI{shuffled[0]}
	for _, poi := range shuffled[1:] {
		if len(selected) >= count {
			break
		}
		tooClose := false
		for _, s := range selected {
			if geo.Distance(poi.Location, s.Location) < minSpacingM {
				tooClose = true
				break
			}
		}
		if !tooClose {
			selected = append(selected, poi)
		}
	}

	if len(selected) < count {
		for _, poi := range shuffled {
			if len(selected) >= count {
				break
			}
			if !containsName(selected, poi.Name) {
				selected = append(selected, poi)
			}
		}
	}
	return selected
}

func containsName(pois []gumshoe.POI, name string) bool {
	for _, p := range pois {
		if p.Name == name {
			return true
		}
	}
	return false
}

func topUp(pool, extra []gumshoe.POI) []gumshoe.POI {
	for _, p := range extra {
		if !containsName(pool, p.Name) {
			pool = append(pool, p)
		}
	}
	return pool
}

func sortByDistance(pois []gumshoe.POI, center gumshoe.Location) {
	sort.Slice(pois, func(i, j int) bool {
		return geo.Distance(pois[i].Location, center) < geo.Distance(pois[j].Location, center)
	})
}

func suggestedImportance(i int) gumshoe.Importance {
	switch {
	case i == 0:
		return gumshoe.ImportanceCritical
	case i <= 2:
		return gumshoe.ImportanceImportant
	case i == 3:
		return gumshoe.ImportanceMisleading
	default:
		return gumshoe.ImportanceBackground
	}
}

var syntheticSpots = []struct {
	name     string
	category string
}{
	{"Cafe", "cafe"},
	{"Corner Store", "shop"},
	{"Park", "park"},
	{"Parking Lot", "parking"},
	{"Bus Stop", "station"},
	{"Crossroads", "intersection"},
	{"Market", "shop"},
	{"Restaurant", "restaurant"},
	{"Kiosk", "shop"},
}

// synthesize fans deterministic spots out around center, 40 degrees apart at
// growing distances, so the same start location replays the same map.
func synthesize(center gumshoe.Location, radiusM float64) []gumshoe.POI {
	pois := make([]gumshoe.POI, len(syntheticSpots))
	for i, spot := range syntheticSpots {
		frac := 0.25 + 0.55*float64(i)/float64(len(syntheticSpots)-1)
		dist := radiusM * frac
		angle := float64(i) * 40 * math.Pi / 180

		latOffset := (dist / 111000) * math.Cos(angle)
		lngOffset := (dist / (111000 * math.Cos(center.Lat*math.Pi/180))) * math.Sin(angle)

		pois[i] = gumshoe.POI{
			Name:     fmt.Sprintf("%s (%dm)", spot.name, int(dist)),
			Category: spot.category,
			Location: gumshoe.Location{Lat: center.Lat + latOffset, Lng: center.Lng + lngOffset},
		}
	}
	return pois
}
