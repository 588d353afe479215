package relation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// HTTPClient is the concrete HTTP implementation of Service, wrapped in a
// circuit breaker exactly as the teacher's pkg/external clients wrap their
// respective upstreams.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

// NewHTTPClient constructs an HTTPClient against endpoint.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "relation-service",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		breaker:  breaker,
	}
}

type relationResponse struct {
	DatasetIDs []string `json:"datasetIds"`
}

// GetDatasetsFromStudy performs a GET against the relation service,
// tagging the request with a uuid for audit purposes.
func (c *HTTPClient) GetDatasetsFromStudy(ctx context.Context, jgasID string) ([]string, error) {
	requestID := uuid.NewString()

	u := fmt.Sprintf("%s?studyId=%s", c.endpoint, url.QueryEscape(jgasID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrRelationService, "building relation request", err)
	}
	req.Header.Set("X-Request-ID", requestID)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return &relationResponse{}, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("relation service returned status %d", resp.StatusCode)
		}

		var out relationResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrRelationService, fmt.Sprintf("expanding %s", jgasID), err)
	}

	return result.(*relationResponse).DatasetIDs, nil
}
