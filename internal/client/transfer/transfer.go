// Package transfer resolves download tokens against the store's HTTP API and
// streams the referenced file into the local download directory.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/client/purchase"
	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/cryptox"
	"github.com/dmitrijs2005/gophstore/internal/filex"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/netx"
)

// ErrNoDownloadURL means the store resolved the token but the file
// reference is not reachable from the client.
var ErrNoDownloadURL = errors.New("no download location for file")

// Resolution is what the store returns for a live token.
type Resolution struct {
	FileRef     string    `json:"fileRef"`
	ContentID   string    `json:"contentId"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HTTPTransferer struct {
	baseURL string
	dir     string
	timeout time.Duration
	client  *http.Client
	logger  logging.Logger
}

var _ purchase.Transferer = (*HTTPTransferer)(nil)

// NewHTTPTransferer resolves tokens at baseURL and saves files under dir.
// timeout bounds resolve calls only; file transfers run until done or
// cancelled.
func NewHTTPTransferer(baseURL, dir string, timeout time.Duration, l logging.Logger) *HTTPTransferer {
	return &HTTPTransferer{
		baseURL: strings.TrimRight(baseURL, "/"),
		dir:     dir,
		timeout: timeout,
		client:  &http.Client{},
		logger:  l.With("module", "transfer"),
	}
}

// Resolve looks up token. Store errors come back as domain sentinels.
func (t *HTTPTransferer) Resolve(ctx context.Context, token string) (*Resolution, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	endpoint := t.baseURL + "/download/resolve/" + url.PathEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", common.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var res Resolution
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode resolution: %w", err)
	}
	return &res, nil
}

func decodeError(resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	if domain, ok := common.FromMessage(body.Message); ok {
		return domain
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", common.ErrServiceUnavailable, resp.StatusCode)
	}
	return fmt.Errorf("resolve failed: status %d %s", resp.StatusCode, body.Code)
}

// Transfer resolves tok and downloads the file it points at. The file
// appears under its final name only once every byte has arrived.
func (t *HTTPTransferer) Transfer(ctx context.Context, tok purchase.Token, progress func(purchase.Progress)) (*purchase.Delivery, error) {
	res, err := t.Resolve(ctx, tok.Value)
	if err != nil {
		return nil, err
	}

	src := res.DownloadURL
	if src == "" && isAbsoluteURL(res.FileRef) {
		src = res.FileRef
	}
	if src == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoDownloadURL, res.FileRef)
	}

	dir, err := filex.EnsureDir(t.dir)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(dir, filex.FileName(res.ContentID, res.Format, res.FileRef))

	f, err := filex.CreateAtomic(target)
	if err != nil {
		return nil, err
	}
	defer f.Abort()

	digest := cryptox.NewDigest()
	n, err := netx.Download(ctx, t.client, src, io.MultiWriter(f, digest), func(done, total int64) {
		if progress != nil {
			progress(purchase.Progress{Done: done, Total: total})
		}
	})
	if err != nil {
		return nil, t.downloadError(ctx, err)
	}

	if err := f.Commit(); err != nil {
		return nil, fmt.Errorf("save %s: %w", target, err)
	}

	t.logger.Info(ctx, "file delivered", "content_id", res.ContentID, "path", target, "bytes", n)

	return &purchase.Delivery{
		Path:    target,
		FileRef: res.FileRef,
		Bytes:   n,
		Digest:  cryptox.DigestString(digest),
	}, nil
}

// downloadError classifies a failed file fetch. A refused signed link has
// expired, so the caller needs a fresh token.
func (t *HTTPTransferer) downloadError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var se *netx.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusForbidden, se.Code == http.StatusNotFound, se.Code == http.StatusGone:
			return fmt.Errorf("%w: %v", common.ErrDownloadTokenExpired, err)
		case se.Code >= 500:
			return fmt.Errorf("%w: %v", common.ErrServiceUnavailable, err)
		default:
			return err
		}
	}

	t.logger.Warn(ctx, "transfer interrupted", "error", err)
	return fmt.Errorf("%w: %v", common.ErrServiceUnavailable, err)
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
