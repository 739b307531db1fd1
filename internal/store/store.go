package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firestorepb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ColUsers          = "users"
	ColProfiles       = "sos_profiles"
	ColPayments       = "payments"
	ColReviews        = "reviews"
	ColBackups        = "backups"
	ColLegalDocuments = "legal_documents"
	ColAdminConfig    = "admin_config"
	ColStripeEvents   = "stripe_events"
)

// IsNotFound reports a Firestore NotFound status.
func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// IsAlreadyExists reports a Firestore AlreadyExists status (Create on an existing doc).
func IsAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// Count runs a server-side count aggregation for q.
func Count(ctx context.Context, q firestore.Query) (int64, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T", res["all"])
	}
	return v.GetIntegerValue(), nil
}
