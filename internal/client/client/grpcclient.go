package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/client/purchase"
	"github.com/dmitrijs2005/gophstore/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	accessToken string
	timeout     time.Duration
}

var _ purchase.Backend = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewStoreClient connects lazily to the store at endpointURL. Every call
// carries accessToken and is bounded by timeout when it is positive. Extra
// dial options are appended after the defaults.
func NewStoreClient(endpointURL, accessToken string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}

	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, common.StoreMethod(method), req, resp); err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) CreateIntent(ctx context.Context, contentID string) (*purchase.Intent, error) {
	resp, err := s.call(ctx, "CreateIntent", map[string]any{"contentId": contentID})
	if err != nil {
		return nil, err
	}

	return &purchase.Intent{
		ID:           str(resp, "intentId"),
		ClientHandle: str(resp, "clientHandle"),
		Amount:       num(resp, "amount"),
		Currency:     str(resp, "currency"),
	}, nil
}

func (s *GRPCClient) ConfirmIntent(ctx context.Context, intentID string) error {
	_, err := s.call(ctx, "ConfirmIntent", map[string]any{"intentId": intentID})
	return err
}

func (s *GRPCClient) IssueToken(ctx context.Context, contentID, format string) (*purchase.Token, error) {
	resp, err := s.call(ctx, "IssueToken", map[string]any{"contentId": contentID, "format": format})
	if err != nil {
		return nil, err
	}

	expiresAt, err := timestamp(resp, "expiresAt")
	if err != nil {
		return nil, err
	}

	return &purchase.Token{
		Value:     str(resp, "token"),
		ContentID: str(resp, "contentId"),
		Format:    str(resp, "format"),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *GRPCClient) ListOwnerships(ctx context.Context) ([]models.Ownership, error) {
	resp, err := s.call(ctx, "ListOwnerships", map[string]any{})
	if err != nil {
		return nil, err
	}

	list := resp.GetFields()["ownerships"].GetListValue().GetValues()
	result := make([]models.Ownership, 0, len(list))

	for _, v := range list {
		item := v.GetStructValue()
		if item == nil {
			continue
		}

		purchased, err := timestamp(item, "purchaseDate")
		if err != nil {
			return nil, err
		}

		o := models.Ownership{
			ContentID:     str(item, "contentId"),
			PurchasePrice: num(item, "purchasePrice"),
			PurchaseDate:  purchased,
			DownloadCount: num(item, "downloadCount"),
		}

		if _, ok := item.GetFields()["lastDownloadAt"]; ok {
			last, err := timestamp(item, "lastDownloadAt")
			if err != nil {
				return nil, err
			}
			o.LastDownloadAt = &last
		}

		result = append(result, o)
	}

	return result, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.call(ctx, "Ping", map[string]any{})
	if err != nil {
		return err
	}

	if str(resp, "status") != "OK" {
		return common.ErrServiceUnavailable
	}

	return nil
}

// mapError turns a status back into the domain sentinel carried in its
// message. Transport failures without one become ErrServiceUnavailable.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	if domain, ok := common.FromMessage(st.Message()); ok {
		return domain
	}

	switch st.Code() {
	case codes.Unauthenticated:
		return common.ErrorUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", common.ErrServiceUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func str(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func num(s *structpb.Struct, name string) int64 {
	return int64(s.GetFields()[name].GetNumberValue())
}

func timestamp(s *structpb.Struct, name string) (time.Time, error) {
	raw := str(s, name)
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad %s %q: %w", name, raw, err)
	}
	return t, nil
}
