// Package directory is the synchronous boundary to the clinic directory
// collaborator that owns doctor and patient records. The scheduler keeps only
// foreign ids, existence checks go over HTTP behind a circuit breaker.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

var ErrUnavailable = errors.New("directory service unavailable")

type Client interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AllowAll accepts every id. Used when DIRECTORY_URL is not configured and
// the deployment trusts upstream id validation.
type AllowAll struct{}

func (AllowAll) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)  { return true, nil }
func (AllowAll) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) { return true, nil }

type HTTPClient struct {
	baseURL string
	hc      *http.Client
	cb      *gobreaker.CircuitBreaker[bool]
}

func NewHTTPClient(baseURL string) *HTTPClient {
	cb := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:    "clinic-directory",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 3 * time.Second},
		cb:      cb,
	}
}

func (c *HTTPClient) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return c.exists(ctx, "doctors", id)
}

func (c *HTTPClient) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return c.exists(ctx, "patients", id)
}

func (c *HTTPClient) exists(ctx context.Context, resource string, id uuid.UUID) (bool, error) {
	found, err := c.cb.Execute(func() (bool, error) {
		url := fmt.Sprintf("%s/%s/%s", c.baseURL, resource, id.String())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			return true, nil
		case http.StatusNotFound:
			return false, nil
		default:
			return false, fmt.Errorf("directory %s lookup: unexpected status %d", resource, resp.StatusCode)
		}
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return false, err
	}

	return found, nil
}
