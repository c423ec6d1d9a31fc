package nadeo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/atdiff/internal/domain/model"
)

// Leaderboard offsets used by the fetch job.
const (
	BestOffset = 0
	TenKOffset = 9999
)

// CatalogPage selects one page of the official campaign catalog.
type CatalogPage struct {
	Length int
	Offset int
	// Strict makes a catalog with more groups than the page an error.
	Strict bool
}

// DefaultCatalogPage is the first 30 groups, strict.
var DefaultCatalogPage = CatalogPage{Length: 30, Offset: 0, Strict: true}

// MapInfo is the subset of map metadata the board needs.
type MapInfo struct {
	AuthorTimeMS int64
	ThumbnailURL string
}

func (c *Client) authorized(creds Credentials) (map[string]string, error) {
	if creds.Expired(c.now()) {
		return nil, ErrCredentialsExpired
	}
	return map[string]string{"Authorization": creds.Header()}, nil
}

type catalogResponse struct {
	ItemCount    int `json:"itemCount"`
	CampaignList []struct {
		Name     string `json:"name"`
		Playlist []struct {
			Position int    `json:"position"`
			MapUID   string `json:"mapUid"`
		} `json:"playlist"`
	} `json:"campaignList"`
}

// ListCatalog returns one page of official campaigns with their maps, in
// catalog and playlist order. Positions are 1-based.
func (c *Client) ListCatalog(ctx context.Context, creds Credentials, page CatalogPage) (model.Catalog, error) {
	headers, err := c.authorized(creds)
	if err != nil {
		return model.Catalog{}, err
	}
	q := url.Values{}
	q.Set("length", strconv.Itoa(page.Length))
	q.Set("offset", strconv.Itoa(page.Offset))

	var resp catalogResponse
	err = c.do(ctx, call{
		op:      "catalog",
		method:  http.MethodGet,
		url:     c.liveURL + "/api/token/campaign/official?" + q.Encode(),
		headers: headers,
		kind:    ErrFetch,
	}, &resp)
	if err != nil {
		return model.Catalog{}, err
	}

	cat := model.Catalog{Total: resp.ItemCount, Groups: make([]model.Group, 0, len(resp.CampaignList))}
	for _, cl := range resp.CampaignList {
		g := model.Group{Name: cl.Name, Entries: make([]model.Entry, 0, len(cl.Playlist))}
		for _, p := range cl.Playlist {
			g.Entries = append(g.Entries, model.Entry{Position: p.Position + 1, MapUID: p.MapUID})
		}
		cat.Groups = append(cat.Groups, g)
	}

	if page.Strict && page.Offset+len(cat.Groups) < cat.Total {
		return cat, fmt.Errorf("%w: got %d of %d", ErrCatalogTruncated, len(cat.Groups), cat.Total)
	}
	return cat, nil
}

// GetItemMetadata returns the requested fields of a map's metadata.
func (c *Client) GetItemMetadata(ctx context.Context, creds Credentials, mapUID string, fields ...string) (map[string]json.RawMessage, error) {
	headers, err := c.authorized(creds)
	if err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	err = c.do(ctx, call{
		op:      "map",
		method:  http.MethodGet,
		url:     c.liveURL + "/api/token/map/" + url.PathEscape(mapUID),
		headers: headers,
		kind:    ErrFetch,
	}, &all)
	if err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		v, ok := all[f]
		if !ok {
			return nil, fmt.Errorf("%w: map %s: %q", ErrMissingField, mapUID, f)
		}
		out[f] = v
	}
	return out, nil
}

// GetMapInfo returns the author time and thumbnail of a map.
func (c *Client) GetMapInfo(ctx context.Context, creds Credentials, mapUID string) (MapInfo, error) {
	raw, err := c.GetItemMetadata(ctx, creds, mapUID, "authorTime", "thumbnailUrl")
	if err != nil {
		return MapInfo{}, err
	}
	var info MapInfo
	if err := json.Unmarshal(raw["authorTime"], &info.AuthorTimeMS); err != nil {
		return MapInfo{}, fmt.Errorf("%w: map %s: authorTime: %w", ErrDecode, mapUID, err)
	}
	if err := json.Unmarshal(raw["thumbnailUrl"], &info.ThumbnailURL); err != nil {
		return MapInfo{}, fmt.Errorf("%w: map %s: thumbnailUrl: %w", ErrDecode, mapUID, err)
	}
	return info, nil
}

type leaderboardResponse struct {
	Tops []struct {
		Top []struct {
			Score int64 `json:"score"`
		} `json:"top"`
	} `json:"tops"`
}

// GetRankTime returns the personal-best time in ms at the given world rank offset.
func (c *Client) GetRankTime(ctx context.Context, creds Credentials, mapUID string, offset int) (int64, error) {
	headers, err := c.authorized(creds)
	if err != nil {
		return 0, err
	}
	q := url.Values{}
	q.Set("length", "1")
	q.Set("onlyWorld", "true")
	q.Set("offset", strconv.Itoa(offset))

	var resp leaderboardResponse
	err = c.do(ctx, call{
		op:      "leaderboard",
		method:  http.MethodGet,
		url:     c.liveURL + "/api/token/leaderboard/group/Personal_Best/map/" + url.PathEscape(mapUID) + "/top?" + q.Encode(),
		headers: headers,
		kind:    ErrFetch,
	}, &resp)
	if err != nil {
		return 0, err
	}
	if len(resp.Tops) == 0 || len(resp.Tops[0].Top) == 0 {
		return 0, fmt.Errorf("%w: map %s offset %d", ErrNoScore, mapUID, offset)
	}
	return resp.Tops[0].Top[0].Score, nil
}
