package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func stringField(req *structpb.Struct, name string) string {
	v := req.GetFields()[name]
	if v == nil {
		return ""
	}
	return v.GetStringValue()
}

func respond(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *GRPCServer) CreateIntent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	contentID := stringField(req, "contentId")
	created, err := s.payments.CreateIntent(ctx, userID, contentID)
	if err != nil {
		s.logger.Warn(ctx, "create intent failed", "user_id", userID, "content_id", contentID, "error", err)
		return nil, statusError(err)
	}

	return respond(map[string]any{
		"intentId":     created.IntentID,
		"clientHandle": created.ClientHandle,
		"amount":       created.Amount,
		"currency":     created.Currency,
	})
}

func (s *GRPCServer) ConfirmIntent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	intentID := stringField(req, "intentId")
	if err := s.payments.ConfirmIntent(ctx, intentID, userID); err != nil {
		s.logger.Warn(ctx, "confirm intent failed", "user_id", userID, "intent_id", intentID, "error", err)
		return nil, statusError(err)
	}

	return respond(map[string]any{"ok": true})
}

func (s *GRPCServer) IssueToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	issued, err := s.tokens.IssueToken(ctx, userID, stringField(req, "contentId"), stringField(req, "format"))
	if err != nil {
		return nil, statusError(err)
	}

	return respond(map[string]any{
		"token":     issued.Token,
		"contentId": issued.ContentID,
		"format":    issued.Format,
		"issuedAt":  issued.IssuedAt.UTC().Format(time.RFC3339Nano),
		"expiresAt": issued.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

func (s *GRPCServer) ResolveToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resolved, err := s.tokens.ResolveToken(ctx, stringField(req, "token"))
	if err != nil {
		return nil, statusError(err)
	}

	fields := map[string]any{
		"fileRef":   resolved.FileRef,
		"contentId": resolved.ContentID,
		"format":    resolved.Format,
		"expiresAt": resolved.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}
	if resolved.DownloadURL != "" {
		fields["downloadUrl"] = resolved.DownloadURL
	}
	return respond(fields)
}

func (s *GRPCServer) ListOwnerships(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	owned, err := s.library.List(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "list ownerships failed", "user_id", userID, "error", err)
		return nil, statusError(err)
	}

	items := make([]any, 0, len(owned))
	for _, o := range owned {
		item := map[string]any{
			"contentId":     o.ContentID,
			"purchasePrice": o.PurchasePrice,
			"purchaseDate":  o.PurchaseDate.UTC().Format(time.RFC3339Nano),
			"downloadCount": o.DownloadCount,
		}
		if o.LastDownloadAt != nil {
			item["lastDownloadAt"] = o.LastDownloadAt.UTC().Format(time.RFC3339Nano)
		}
		items = append(items, item)
	}

	return respond(map[string]any{"ownerships": items})
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return respond(map[string]any{"status": "OK", "service": common.StoreServiceName})
}
