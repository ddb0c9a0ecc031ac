package notification

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	pathList        = "/api/notifications/"
	pathUnreadCount = "/api/notifications/unread-count/"
	pathMarkRead    = "/api/notifications/mark-read/"
	pathPreferences = "/api/notifications/preferences/"
)

type Filter struct {
	IsRead   *bool
	Type     string
	Ordering string // e.g. "-created_at"
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.IsRead != nil {
		q.Set("is_read", strconv.FormatBool(*f.IsRead))
	}
	if f.Type != "" {
		q.Set("notification_type", f.Type)
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	return q
}

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

func (a *API) List(ctx context.Context, filter Filter) (models.Page[models.Notification], error) {
	var page models.Page[models.Notification]
	err := a.client.Get(ctx, pathList, filter.query(), &page)
	return page, err
}

func (a *API) Unread(ctx context.Context) (models.Page[models.Notification], error) {
	unread := false
	return a.List(ctx, Filter{IsRead: &unread})
}

func (a *API) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Unread int `json:"unread"`
	}
	err := a.client.Get(ctx, pathUnreadCount, nil, &resp)
	return resp.Unread, err
}

// MarkRead marks notifications as read and returns how many the backend changed
func (a *API) MarkRead(ctx context.Context, ids ...int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var resp struct {
		Marked int `json:"marked"`
	}
	err := a.client.Post(ctx, pathMarkRead, map[string][]int64{"notification_ids": ids}, &resp)
	return resp.Marked, err
}

func (a *API) Preferences(ctx context.Context) (models.NotificationPreferences, error) {
	var prefs models.NotificationPreferences
	err := a.client.Get(ctx, pathPreferences, nil, &prefs)
	return prefs, err
}

func (a *API) UpdatePreferences(ctx context.Context, prefs models.NotificationPreferences) (models.NotificationPreferences, error) {
	var updated models.NotificationPreferences
	err := a.client.Put(ctx, pathPreferences, prefs, &updated)
	return updated, err
}
