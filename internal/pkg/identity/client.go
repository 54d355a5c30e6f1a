package identity

import (
	"MiniSocial/internal/api/config"
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/pkg/redis"
	"context"
	"fmt"
	"time"

	log "log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Info 身份提供方返回的用户基础信息
type Info struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Client 身份提供方管理接口客户端，查询结果写入 Redis 短期缓存
type Client struct {
	http     *resty.Client
	realm    string
	cacheTTL time.Duration
}

func NewClient(cfg config.IdentityConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutMs) * time.Millisecond).
		SetAuthToken(cfg.AdminToken).
		SetRetryCount(2)

	cacheTTL := time.Duration(cfg.CacheSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	return &Client{
		http:     client,
		realm:    cfg.Realm,
		cacheTTL: cacheTTL,
	}
}

// Lookup 按 subject 查询用户信息，优先命中缓存
func (c *Client) Lookup(ctx context.Context, id string) (*Info, error) {
	key := consts.IdentityInfoKey + id
	if value, err := redis.GetValue(ctx, key); err == nil && value != "" {
		var info Info
		if err = json.Unmarshal([]byte(value), &info); err == nil {
			return &info, nil
		}
	}

	var raw struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
		Attributes struct {
			DisplayName []string `json:"displayName"`
			AvatarURL   []string `json:"avatarUrl"`
		} `json:"attributes"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&raw).
		Get(fmt.Sprintf("/admin/realms/%s/users/%s", c.realm, id))
	if err != nil {
		return nil, errors.Wrap(err, "identity lookup failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("identity lookup failed: status %d", resp.StatusCode())
	}

	info := &Info{
		ID:       raw.ID,
		Username: raw.Username,
	}
	if len(raw.Attributes.DisplayName) > 0 {
		info.DisplayName = raw.Attributes.DisplayName[0]
	}
	if info.DisplayName == "" {
		info.DisplayName = raw.Username
	}
	if len(raw.Attributes.AvatarURL) > 0 {
		info.AvatarURL = raw.Attributes.AvatarURL[0]
	}

	if data, err := json.Marshal(info); err == nil {
		if err = redis.SetWithExpiration(ctx, key, string(data), c.cacheTTL); err != nil {
			log.Warn("Failed to cache identity info", "id", id, "err", err)
		}
	}
	return info, nil
}
