package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ---- fakes ----

type fakePayments struct {
	created    *services.CreatedIntent
	createErr  error
	confirmErr error

	lastUser    string
	lastContent string
	lastIntent  string
}

func (f *fakePayments) CreateIntent(ctx context.Context, userID, contentID string) (*services.CreatedIntent, error) {
	f.lastUser, f.lastContent = userID, contentID
	return f.created, f.createErr
}

func (f *fakePayments) ConfirmIntent(ctx context.Context, intentID, userID string) error {
	f.lastUser, f.lastIntent = userID, intentID
	return f.confirmErr
}

type fakeTokens struct {
	issued     *services.IssuedToken
	issueErr   error
	resolved   *services.ResolvedToken
	resolveErr error

	lastFormat string
	lastToken  string
}

func (f *fakeTokens) IssueToken(ctx context.Context, userID, contentID, format string) (*services.IssuedToken, error) {
	f.lastFormat = format
	return f.issued, f.issueErr
}

func (f *fakeTokens) ResolveToken(ctx context.Context, tokenValue string) (*services.ResolvedToken, error) {
	f.lastToken = tokenValue
	return f.resolved, f.resolveErr
}

type fakeLibrary struct {
	owned []*models.Ownership
	err   error
}

func (f *fakeLibrary) List(ctx context.Context, userID string) ([]*models.Ownership, error) {
	return f.owned, f.err
}

func newHandlerServer(p *fakePayments, tk *fakeTokens, lib *fakeLibrary) *GRPCServer {
	return NewGRPCServer("", logging.Nop{}, p, tk, lib, "secret")
}

func asUser(id string) context.Context {
	return context.WithValue(context.Background(), UserIDKey, id)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestCreateIntent_ReturnsHandle(t *testing.T) {
	p := &fakePayments{created: &services.CreatedIntent{IntentID: "pi_1", ClientHandle: "pi_1_secret", Amount: 999, Currency: "usd"}}
	s := newHandlerServer(p, &fakeTokens{}, &fakeLibrary{})

	resp, err := s.CreateIntent(asUser("A"), mustStruct(t, map[string]any{"contentId": "7"}))
	require.NoError(t, err)

	f := resp.GetFields()
	assert.Equal(t, "pi_1", f["intentId"].GetStringValue())
	assert.Equal(t, "pi_1_secret", f["clientHandle"].GetStringValue())
	assert.Equal(t, float64(999), f["amount"].GetNumberValue())
	assert.Equal(t, "A", p.lastUser)
	assert.Equal(t, "7", p.lastContent)
}

func TestCreateIntent_WithoutUserIsUnauthenticated(t *testing.T) {
	s := newHandlerServer(&fakePayments{}, &fakeTokens{}, &fakeLibrary{})

	_, err := s.CreateIntent(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestHandlers_MapDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"already owned", common.ErrAlreadyOwned, codes.AlreadyExists},
		{"not purchasable", common.ErrNotPurchasable, codes.FailedPrecondition},
		{"validation", fmt.Errorf("create intent: %w", common.ErrValidation), codes.InvalidArgument},
		{"gateway", common.ErrGatewayUnavailable, codes.Unavailable},
		{"unknown", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newHandlerServer(&fakePayments{createErr: tt.err}, &fakeTokens{}, &fakeLibrary{})

			_, err := s.CreateIntent(asUser("A"), mustStruct(t, map[string]any{"contentId": "7"}))
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
			if tt.code == codes.Internal {
				assert.Equal(t, common.ErrorInternal.Error(), status.Convert(err).Message())
			}
		})
	}
}

func TestConfirmIntent_OK(t *testing.T) {
	p := &fakePayments{}
	s := newHandlerServer(p, &fakeTokens{}, &fakeLibrary{})

	resp, err := s.ConfirmIntent(asUser("A"), mustStruct(t, map[string]any{"intentId": "pi_1"}))
	require.NoError(t, err)
	assert.True(t, resp.GetFields()["ok"].GetBoolValue())
	assert.Equal(t, "pi_1", p.lastIntent)
}

func TestIssueToken_FormatsTimes(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tk := &fakeTokens{issued: &services.IssuedToken{
		Token: "tok", ContentID: "7", Format: "PDF", IssuedAt: issued, ExpiresAt: issued.Add(24 * time.Hour),
	}}
	s := newHandlerServer(&fakePayments{}, tk, &fakeLibrary{})

	resp, err := s.IssueToken(asUser("A"), mustStruct(t, map[string]any{"contentId": "7", "format": "pdf"}))
	require.NoError(t, err)

	f := resp.GetFields()
	assert.Equal(t, "tok", f["token"].GetStringValue())
	assert.Equal(t, "2026-01-03T03:04:05Z", f["expiresAt"].GetStringValue())
	assert.Equal(t, "pdf", tk.lastFormat)
}

func TestIssueToken_NotOwned(t *testing.T) {
	s := newHandlerServer(&fakePayments{}, &fakeTokens{issueErr: common.ErrNotOwned}, &fakeLibrary{})

	_, err := s.IssueToken(asUser("A"), mustStruct(t, map[string]any{"contentId": "7", "format": "pdf"}))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, common.ErrNotOwned.Error(), status.Convert(err).Message())
}

func TestResolveToken_PublicAndOptionalURL(t *testing.T) {
	tk := &fakeTokens{resolved: &services.ResolvedToken{FileRef: "books/7.pdf", ContentID: "7", Format: "PDF"}}
	s := newHandlerServer(&fakePayments{}, tk, &fakeLibrary{})

	resp, err := s.ResolveToken(context.Background(), mustStruct(t, map[string]any{"token": "tok"}))
	require.NoError(t, err)

	f := resp.GetFields()
	assert.Equal(t, "books/7.pdf", f["fileRef"].GetStringValue())
	_, hasURL := f["downloadUrl"]
	assert.False(t, hasURL)
	assert.Equal(t, "tok", tk.lastToken)

	tk.resolved.DownloadURL = "https://s3/books/7.pdf?sig"
	resp, err = s.ResolveToken(context.Background(), mustStruct(t, map[string]any{"token": "tok"}))
	require.NoError(t, err)
	assert.Equal(t, "https://s3/books/7.pdf?sig", resp.GetFields()["downloadUrl"].GetStringValue())
}

func TestResolveToken_Errors(t *testing.T) {
	s := newHandlerServer(&fakePayments{}, &fakeTokens{resolveErr: common.ErrDownloadTokenExpired}, &fakeLibrary{})
	_, err := s.ResolveToken(context.Background(), mustStruct(t, map[string]any{"token": "tok"}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, common.ErrDownloadTokenExpired.Error(), status.Convert(err).Message())

	s = newHandlerServer(&fakePayments{}, &fakeTokens{resolveErr: common.ErrDownloadTokenNotFound}, &fakeLibrary{})
	_, err = s.ResolveToken(context.Background(), mustStruct(t, map[string]any{"token": "nope"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListOwnerships(t *testing.T) {
	bought := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	last := bought.Add(time.Hour)
	lib := &fakeLibrary{owned: []*models.Ownership{
		{UserID: "A", ContentID: "7", PurchasePrice: 999, PurchaseDate: bought, DownloadCount: 2, LastDownloadAt: &last},
		{UserID: "A", ContentID: "8", PurchasePrice: 500, PurchaseDate: bought},
	}}
	s := newHandlerServer(&fakePayments{}, &fakeTokens{}, lib)

	resp, err := s.ListOwnerships(asUser("A"), &structpb.Struct{})
	require.NoError(t, err)

	items := resp.GetFields()["ownerships"].GetListValue().GetValues()
	require.Len(t, items, 2)
	first := items[0].GetStructValue().GetFields()
	assert.Equal(t, "7", first["contentId"].GetStringValue())
	assert.Equal(t, float64(2), first["downloadCount"].GetNumberValue())
	assert.Equal(t, "2026-03-01T13:00:00Z", first["lastDownloadAt"].GetStringValue())
	_, hasLast := items[1].GetStructValue().GetFields()["lastDownloadAt"]
	assert.False(t, hasLast)
}

func TestPing(t *testing.T) {
	s := newHandlerServer(&fakePayments{}, &fakeTokens{}, &fakeLibrary{})

	resp, err := s.Ping(context.Background(), &structpb.Struct{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.GetFields()["status"].GetStringValue())
}
