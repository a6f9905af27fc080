package store

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/config"
)

// VersionHeader carries the expected version on writes to the raw entry API.
const VersionHeader = "If-Match"

// Remote is a Store that talks to another eventbid server's /v1/store API.
type Remote struct {
	httpClient *resty.Client
	log        *zap.Logger
}

type remoteError struct {
	Error string `json:"error"`
}

// OpenRemote builds a resty-backed client for the server at cfg.BaseURL.
func OpenRemote(cfg config.RemoteConfig, log *zap.Logger) (*Remote, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("remote store: base_url is not set")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base+"/v1/store").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Remote{httpClient: restyClient, log: log}, nil
}

func (r *Remote) request(ctx context.Context, kind Kind, key string) *resty.Request {
	req := r.httpClient.R().
		SetContext(ctx).
		SetError(&remoteError{}).
		SetPathParam("kind", string(kind))
	if key != "" {
		req.SetPathParam("key", key)
	}
	return req
}

// statusErr maps an unsuccessful response onto the store's sentinel errors.
func statusErr(resp *resty.Response, kind Kind, key string) error {
	msg := resp.Status()
	if e, ok := resp.Error().(*remoteError); ok && e.Error != "" {
		msg = e.Error
	}
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%s/%s: %w", kind, key, ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("remote rejected %s/%s: %s", kind, key, msg)
	}
	return fmt.Errorf("remote store %s/%s: %s", kind, key, msg)
}

func (r *Remote) Save(ctx context.Context, kind Kind, key string, payload []byte, ifVersion int64) (int64, error) {
	if err := checkSave(kind, key, payload); err != nil {
		return 0, err
	}
	var out Entry
	req := r.request(ctx, kind, key).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&out)
	if ifVersion != AnyVersion {
		req.SetHeader(VersionHeader, strconv.FormatInt(ifVersion, 10))
	}
	resp, err := req.Put("/{kind}/{key}")
	if err != nil {
		return 0, fmt.Errorf("save %s/%s: %w", kind, key, err)
	}
	if resp.IsError() {
		return 0, statusErr(resp, kind, key)
	}
	r.log.Debug("remote entry saved", zap.String("kind", string(kind)), zap.String("key", key), zap.Int64("version", out.Version))
	return out.Version, nil
}

func (r *Remote) Load(ctx context.Context, kind Kind, key string) (Entry, error) {
	if err := checkArgs(kind, key); err != nil {
		return Entry{}, err
	}
	var out Entry
	resp, err := r.request(ctx, kind, key).SetResult(&out).Get("/{kind}/{key}")
	if err != nil {
		return Entry{}, fmt.Errorf("load %s/%s: %w", kind, key, err)
	}
	if resp.IsError() {
		return Entry{}, statusErr(resp, kind, key)
	}
	return out, nil
}

func (r *Remote) List(ctx context.Context, kind Kind) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	var out []Entry
	resp, err := r.request(ctx, kind, "").SetResult(&out).Get("/{kind}")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	if resp.IsError() {
		return nil, statusErr(resp, kind, "")
	}
	return out, nil
}

func (r *Remote) Delete(ctx context.Context, kind Kind, key string) error {
	if err := checkArgs(kind, key); err != nil {
		return err
	}
	resp, err := r.request(ctx, kind, key).Delete("/{kind}/{key}")
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", kind, key, err)
	}
	if resp.IsError() {
		return statusErr(resp, kind, key)
	}
	return nil
}

func (r *Remote) Close() error { return nil }
