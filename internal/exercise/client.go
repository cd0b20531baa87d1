package exercise

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"nextrep/internal/domain"
)

// Options configures the exercise API client
type Options struct {
	BaseURL  string
	APIKey   string
	APIHost  string
	Timeout  time.Duration
	PageSize int
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = "https://gym-fit.p.rapidapi.com"
	}
	if o.APIHost == "" {
		o.APIHost = "gym-fit.p.rapidapi.com"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.PageSize <= 0 {
		o.PageSize = 50
	}
	return o
}

// Client talks to the third-party exercise API. It does no caching and no
// retries; both belong to callers.
type Client struct {
	resty    *resty.Client
	pageSize int
}

// NewClient creates an exercise API client
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()

	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("x-rapidapi-host", opts.APIHost)
	if opts.APIKey != "" {
		rc.SetHeader("x-rapidapi-key", opts.APIKey)
	}

	return &Client{resty: rc, pageSize: opts.PageSize}
}

// SearchByBodyPart returns the exercises for an API body part, dropping
// entries without a usable image
func (c *Client) SearchByBodyPart(ctx context.Context, bodyPart string) ([]domain.Exercise, error) {
	var out domain.SearchResponse
	req := c.resty.R().SetQueryParams(map[string]string{
		"number":   strconv.Itoa(c.pageSize),
		"offset":   "0",
		"bodyPart": bodyPart,
	})
	if err := c.do(ctx, req, "/v1/exercises/search", &out); err != nil {
		return nil, err
	}

	withImages := make([]domain.Exercise, 0, len(out.Results))
	for _, ex := range out.Results {
		if ex.HasImage() {
			withImages = append(withImages, ex)
		}
	}
	return withImages, nil
}

// Details returns the full record of one exercise
func (c *Client) Details(ctx context.Context, id string) (domain.ExerciseDetail, error) {
	var out domain.ExerciseDetail
	req := c.resty.R().SetPathParam("id", id)
	if err := c.do(ctx, req, "/v1/exercises/{id}", &out); err != nil {
		return domain.ExerciseDetail{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, req *resty.Request, path string, result any) error {
	resp, err := req.SetContext(ctx).SetResult(result).Get(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return domain.ErrExerciseNotFound
	}
	if resp.IsError() {
		return &domain.UpstreamError{StatusCode: resp.StatusCode(), URL: resp.Request.URL}
	}
	return nil
}
