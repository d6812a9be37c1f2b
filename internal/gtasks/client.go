package gtasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/gtaskall/gtaskall/internal/model"
)

// ErrUnauthorized is returned when the remote store rejects the access
// token. Callers must not retry with the same token; the owning account
// should be marked expired instead.
var ErrUnauthorized = errors.New("access token rejected")

// listPageSize is the maxResults value used when paginating tasks.
const listPageSize = 100

// APIRecorder receives one measurement per remote call.
type APIRecorder interface {
	RecordAPIOperation(ctx context.Context, operation, status string, duration time.Duration)
}

// Client wraps the Google Tasks service. It holds no per-account state:
// every call takes the access token to use, and a service handle is built
// from it on the fly.
type Client struct {
	extraOpts []option.ClientOption
	recorder  APIRecorder
}

// NewClient creates a Tasks client. Additional client options (endpoint
// overrides, custom HTTP clients) are passed through to every service
// handle; tests use this to point the client at a fake API server.
func NewClient(opts ...option.ClientOption) *Client {
	return &Client{extraOpts: opts}
}

// SetRecorder attaches an operation recorder. A nil recorder disables
// recording.
func (c *Client) SetRecorder(r APIRecorder) {
	c.recorder = r
}

func (c *Client) observe(ctx context.Context, operation string, start time.Time, err error) {
	if c.recorder == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.recorder.RecordAPIOperation(ctx, operation, status, time.Since(start))
}

func (c *Client) service(ctx context.Context, token string) (*tasks.Service, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})),
	}
	opts = append(opts, c.extraOpts...)

	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}
	return svc, nil
}

// ListTaskLists lists all task lists visible to the token.
func (c *Client) ListTaskLists(ctx context.Context, token string) (lists []model.TaskList, err error) {
	start := time.Now()
	defer func() { c.observe(ctx, "list_task_lists", start, err) }()

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	pageToken := ""
	for {
		call := svc.Tasklists.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		result, err := call.Do()
		if err != nil {
			return nil, wrapAPIError("failed to list task lists", err)
		}
		for _, tl := range result.Items {
			lists = append(lists, toTaskList(tl))
		}
		if result.NextPageToken == "" {
			return lists, nil
		}
		pageToken = result.NextPageToken
	}
}

// ListTasks lists every task in a task list, transparently following
// pagination tokens until the list is exhausted. Completed and hidden
// tasks are included; the view layer decides what to show.
func (c *Client) ListTasks(ctx context.Context, token, listID string) (all []model.Task, err error) {
	start := time.Now()
	defer func() { c.observe(ctx, "list_tasks", start, err) }()

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	pageToken := ""
	for {
		call := svc.Tasks.List(listID).
			ShowCompleted(true).
			ShowHidden(true).
			MaxResults(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		result, err := call.Do()
		if err != nil {
			return nil, wrapAPIError(fmt.Sprintf("failed to list tasks in %s", listID), err)
		}
		for _, t := range result.Items {
			all = append(all, toTask(t, listID))
		}
		if result.NextPageToken == "" {
			return all, nil
		}
		pageToken = result.NextPageToken
	}
}

// PatchTask patches a remote task to match the given local task and
// returns the decoded authoritative server result. The full desired state
// is always known locally, so every mutable field is sent.
func (c *Client) PatchTask(ctx context.Context, token, listID, taskID string, t model.Task) (_ model.Task, err error) {
	start := time.Now()
	defer func() { c.observe(ctx, "patch_task", start, err) }()

	svc, err := c.service(ctx, token)
	if err != nil {
		return model.Task{}, err
	}

	updated, err := svc.Tasks.Patch(listID, taskID, toAPITask(t)).Context(ctx).Do()
	if err != nil {
		return model.Task{}, wrapAPIError(fmt.Sprintf("failed to patch task %s", taskID), err)
	}
	return toTask(updated, listID), nil
}

// InsertTask creates a task in the given list and returns the decoded
// server copy, which carries the remote-assigned ID.
func (c *Client) InsertTask(ctx context.Context, token, listID string, t model.Task) (_ model.Task, err error) {
	start := time.Now()
	defer func() { c.observe(ctx, "insert_task", start, err) }()

	svc, err := c.service(ctx, token)
	if err != nil {
		return model.Task{}, err
	}

	created, err := svc.Tasks.Insert(listID, toAPITask(t)).Context(ctx).Do()
	if err != nil {
		return model.Task{}, wrapAPIError("failed to insert task", err)
	}
	return toTask(created, listID), nil
}

// wrapAPIError maps a 401 response onto ErrUnauthorized so that callers
// can distinguish token expiry from transient failures with errors.Is.
func wrapAPIError(msg string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", msg, ErrUnauthorized)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
