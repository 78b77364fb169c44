package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrProfileNotFound 档案服务里查不到该玩家
var ErrProfileNotFound = errors.New("profile not found")

// Profile 档案服务返回的昵称信息
type Profile struct {
	Name string
}

// ProfileLookup 档案查询协作方（账号体系在核心范围之外，只留这个窄接口）
type ProfileLookup interface {
	GetProfile(ctx context.Context, playerID int64) (Profile, error)
}

// HTTPProfileClient 走 HTTP 调用用户服务
type HTTPProfileClient struct {
	base string
	hc   *http.Client
}

func NewHTTPProfileClient(base string) *HTTPProfileClient {
	return &HTTPProfileClient{
		base: base,
		hc:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPProfileClient) GetProfile(ctx context.Context, playerID int64) (Profile, error) {
	url := fmt.Sprintf("%s/api/v1/users/%d/profile", c.base, playerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("profile lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Profile{}, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("profile lookup: status %d", resp.StatusCode)
	}

	var body struct {
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Profile{}, fmt.Errorf("profile lookup: %w", err)
	}
	return Profile{Name: body.Nickname}, nil
}

// StaticProfiles 固定表实现，测试与离线试跑用
type StaticProfiles map[int64]Profile

func (s StaticProfiles) GetProfile(_ context.Context, playerID int64) (Profile, error) {
	p, ok := s[playerID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}
