package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sandeepkv93/smarttodo/internal/config"
	"github.com/sandeepkv93/smarttodo/internal/model"
)

const (
	taskIDProperty = "smarttodo_task_id"
	ownerProperty  = "smarttodo"
	eventLength    = 15 * time.Minute
)

// Calendar places each reminder as a short event with a popup alert on a
// Google calendar. Events are tagged with private extended properties so
// they can be found again by task id.
type Calendar struct {
	mu         sync.Mutex
	srv        *gcal.Service
	calendarID string
	auth       *OAuth
	now        func() time.Time
}

func NewCalendar(srv *gcal.Service, calendarID string) *Calendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Calendar{srv: srv, calendarID: calendarID, now: time.Now}
}

// NewCalendarFromConfig builds the backend from stored credentials. When no
// token exists yet the backend is returned unauthorized and
// RequestPermission runs the consent flow.
func NewCalendarFromConfig(ctx context.Context, cfg config.CalendarConfig, in io.Reader, out io.Writer) (*Calendar, error) {
	oauthCfg, err := LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	c := NewCalendar(nil, cfg.ID)
	c.auth = &OAuth{Config: oauthCfg, TokenFile: cfg.TokenFile, In: in, Out: out}

	client, err := c.auth.Client(ctx)
	switch {
	case errors.Is(err, ErrNoToken):
		return c, nil
	case err != nil:
		return nil, err
	}
	if err := c.connect(ctx, client); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Calendar) connect(ctx context.Context, client *http.Client) error {
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("create calendar service: %w", err)
	}
	c.mu.Lock()
	c.srv = srv
	c.mu.Unlock()
	return nil
}

func (c *Calendar) service() *gcal.Service {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.srv
}

func (c *Calendar) Schedule(ctx context.Context, task model.Task) (bool, error) {
	rem, ok := futureReminder(task, c.now())
	if !ok {
		return false, nil
	}
	srv := c.service()
	if srv == nil {
		return false, ErrNotAuthorized
	}
	if _, err := srv.Events.Insert(c.calendarID, reminderEvent(task, rem)).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("insert event for %s: %w", task.ID, err)
	}
	return true, nil
}

func (c *Calendar) Cancel(ctx context.Context, taskID string) error {
	return c.deleteMatching(ctx, fmt.Sprintf("%s=%s", taskIDProperty, taskID), time.Time{})
}

// CancelAll deletes every tagged event that has not started yet. Past events
// stay on the calendar as history.
func (c *Calendar) CancelAll(ctx context.Context) error {
	return c.deleteMatching(ctx, ownerProperty+"=1", c.now())
}

func (c *Calendar) HasPermission(ctx context.Context) bool {
	srv := c.service()
	if srv == nil {
		return false
	}
	_, err := srv.Calendars.Get(c.calendarID).Context(ctx).Do()
	return err == nil
}

func (c *Calendar) RequestPermission(ctx context.Context) error {
	if c.service() != nil {
		return nil
	}
	if c.auth == nil {
		return ErrNotAuthorized
	}
	client, err := c.auth.Authorize(ctx)
	if err != nil {
		return err
	}
	return c.connect(ctx, client)
}

// deleteMatching removes events tagged with property. A non-zero from keeps
// events starting before it.
func (c *Calendar) deleteMatching(ctx context.Context, property string, from time.Time) error {
	srv := c.service()
	if srv == nil {
		return ErrNotAuthorized
	}
	call := srv.Events.List(c.calendarID).PrivateExtendedProperty(property)
	if !from.IsZero() {
		call = call.TimeMin(from.Format(time.RFC3339))
	}
	var ids []string
	err := call.Context(ctx).Pages(ctx, func(page *gcal.Events) error {
		for _, ev := range page.Items {
			if !from.IsZero() && startsBefore(ev, from) {
				continue
			}
			ids = append(ids, ev.Id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list events %s: %w", property, err)
	}

	var errs []error
	for _, id := range ids {
		err := srv.Events.Delete(c.calendarID, id).Context(ctx).Do()
		if err != nil && !isGone(err) {
			errs = append(errs, fmt.Errorf("delete event %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func reminderEvent(task model.Task, rem model.Reminder) *gcal.Event {
	var desc strings.Builder
	fmt.Fprintf(&desc, "Category: %s", rem.Category)
	if memo := strings.TrimSpace(task.Memo); memo != "" {
		desc.WriteString("\n\n")
		desc.WriteString(memo)
	}
	return &gcal.Event{
		Summary:     rem.Title,
		Description: desc.String(),
		Start:       &gcal.EventDateTime{DateTime: rem.FireAt.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: rem.FireAt.Add(eventLength).Format(time.RFC3339)},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{{
				Method:          "popup",
				Minutes:         0,
				ForceSendFields: []string{"Minutes"},
			}},
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{
				ownerProperty:  "1",
				taskIDProperty: task.ID,
			},
		},
	}
}

func startsBefore(ev *gcal.Event, t time.Time) bool {
	if ev.Start == nil || ev.Start.DateTime == "" {
		return false
	}
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	return err == nil && start.Before(t)
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}
