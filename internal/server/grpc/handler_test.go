package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", fmt.Errorf("template x: %w", common.ErrorNotFound), codes.NotFound},
		{"export busy", fmt.Errorf("t1: %w", common.ErrExportInProgress), codes.FailedPrecondition},
		{"save busy", common.ErrSaveInProgress, codes.FailedPrecondition},
		{"geometry", fmt.Errorf("%w: zone z1", common.ErrGeometryViolation), codes.InvalidArgument},
		{"persistence", &common.PersistenceError{Op: "replace zones", Err: errors.New("reset")}, codes.Unavailable},
		{"asset", fmt.Errorf("%w: bg", common.ErrAssetLoad), codes.Internal},
		{"background", common.ErrMissingBackground, codes.Internal},
		{"encoding", &common.EncodingError{Stage: "pdf", Err: errors.New("x")}, codes.Internal},
		{"token", common.ErrTokenExpired, codes.Unauthenticated},
		{"cancelled", context.Canceled, codes.Canceled},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}
}

func TestToStatus_HidesUnknownErrors(t *testing.T) {
	st, _ := status.FromError(toStatus(errors.New("password=hunter2")))
	assert.Equal(t, "internal error", st.Message())
}
