package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// introspectClient is a thin wrapper over v2gsimd's plain net/http +
// encoding/json introspection API (internal/introspect), replacing the
// ConnectRPC bfdv1connect.BfdServiceClient the teacher's CLI talks through
// -- there is no generated client to wrap since that surface was dropped
// for lack of a .proto source.
type introspectClient struct {
	baseURL string
	hc      *http.Client
}

func newIntrospectClient(addr string) *introspectClient {
	return &introspectClient{
		baseURL: "http://" + addr,
		hc:      http.DefaultClient,
	}
}

// errSessionNotFound is returned when the daemon has no session for the
// requested peer address.
var errSessionNotFound = errors.New("no such session")

func (c *introspectClient) listSessions(ctx context.Context) ([]sessionView, error) {
	var views []sessionView
	if err := c.getJSON(ctx, "/v1/sessions", &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (c *introspectClient) getSession(ctx context.Context, peer string) (sessionView, error) {
	var view sessionView
	if err := c.getJSON(ctx, "/v1/sessions/"+peer, &view); err != nil {
		return sessionView{}, err
	}
	return view, nil
}

func (c *introspectClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errSessionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}
