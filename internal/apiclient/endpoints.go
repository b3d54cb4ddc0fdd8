package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vidalevel/habits/pkg/habit"
	"github.com/vidalevel/habits/pkg/versioninfo"
)

func (c *Client) Login(ctx context.Context, email, password string) (*habit.LoginResponse, error) {
	var out habit.LoginResponse
	err := c.do(ctx, "/login", RequestOptions{
		Method:    http.MethodPost,
		Body:      habit.LoginRequest{Email: email, Password: password},
		Anonymous: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RegisterUser(ctx context.Context, r habit.RegisterRequest) (*habit.User, error) {
	var out habit.User
	err := c.do(ctx, "/users", RequestOptions{
		Method:    http.MethodPost,
		Body:      r,
		Anonymous: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*habit.User, error) {
	var out habit.User
	if err := c.do(ctx, fmt.Sprintf("/users/%d", id), RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, fields map[string]any) (*habit.User, error) {
	var out habit.User
	err := c.do(ctx, fmt.Sprintf("/users/%d", id), RequestOptions{
		Method: http.MethodPut,
		Body:   fields,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]habit.User, error) {
	var out []habit.User
	if err := c.do(ctx, "/users", RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	var out []habit.Habit
	if err := c.do(ctx, "/habits", RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateHabit(ctx context.Context, h habit.Habit) (*habit.Habit, error) {
	var out habit.Habit
	err := c.do(ctx, "/habits", RequestOptions{
		Method: http.MethodPost,
		Body:   h,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateHabit(ctx context.Context, id int64, fields map[string]any) (*habit.Habit, error) {
	var out habit.Habit
	err := c.do(ctx, fmt.Sprintf("/habits/%d", id), RequestOptions{
		Method: http.MethodPut,
		Body:   fields,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteHabit(ctx context.Context, id int64) error {
	return c.do(ctx, fmt.Sprintf("/habits/%d", id), RequestOptions{Method: http.MethodDelete}, nil)
}

func (c *Client) CompleteHabit(ctx context.Context, comp habit.Completion) error {
	return c.do(ctx, "/completions", RequestOptions{
		Method: http.MethodPost,
		Body:   comp,
	}, nil)
}

func (c *Client) GetMyStats(ctx context.Context) (*habit.Stats, error) {
	path := c.StatsPath
	if path == "" {
		path = DefaultStatsPath
	}
	var out habit.Stats
	if err := c.do(ctx, path, RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendFriendRequest(ctx context.Context, receiverID int64) (*habit.FriendRequest, error) {
	var out habit.FriendRequest
	err := c.do(ctx, "/friend-request", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]int64{"receiver_id": receiverID},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PendingFriendRequests(ctx context.Context) ([]habit.FriendRequest, error) {
	var out []habit.FriendRequest
	if err := c.do(ctx, "/friend-request/pending", RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RespondFriendRequest(ctx context.Context, id int64, accept bool) error {
	action := "reject"
	if accept {
		action = "accept"
	}
	return c.do(ctx, fmt.Sprintf("/friend-request/%d/%s", id, action), RequestOptions{Method: http.MethodPut}, nil)
}

func (c *Client) Ranking(ctx context.Context) ([]habit.RankingEntry, error) {
	var out []habit.RankingEntry
	if err := c.do(ctx, "/ranking", RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Version(ctx context.Context) (*versioninfo.VersionInfo, error) {
	var out versioninfo.VersionInfo
	if err := c.do(ctx, "/version", RequestOptions{Anonymous: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
