package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/registry"
	"github.com/aitool/sleuth/internal/registry/mocks"
)

func TestService_DeleteSelected(t *testing.T) {
	type mockBehavior func(m *mocks.MockFileOps)

	testCases := []struct {
		name         string
		ids          []string
		mockBehavior mockBehavior
		wantFailed   int
		wantMessage  string
	}{
		{
			name: "all succeed",
			ids:  []string{"a", "b"},
			mockBehavior: func(m *mocks.MockFileOps) {
				m.EXPECT().DeleteFile(gomock.Any(), "a").Return(nil)
				m.EXPECT().DeleteFile(gomock.Any(), "b").Return(nil)
			},
			wantFailed:  0,
			wantMessage: "deleted 2 files",
		},
		{
			name: "one of three fails and is still reported as deleted",
			ids:  []string{"a", "b", "c"},
			mockBehavior: func(m *mocks.MockFileOps) {
				m.EXPECT().DeleteFile(gomock.Any(), "a").Return(nil)
				m.EXPECT().DeleteFile(gomock.Any(), "b").Return(&backend.APIError{Status: 500})
				m.EXPECT().DeleteFile(gomock.Any(), "c").Return(nil)
			},
			wantFailed:  1,
			wantMessage: "deleted 3 files",
		},
		{
			name:         "nothing selected",
			ids:          nil,
			mockBehavior: func(m *mocks.MockFileOps) {},
			wantFailed:   0,
			wantMessage:  "deleted 0 files",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			ops := mocks.NewMockFileOps(ctrl)
			tc.mockBehavior(ops)

			got := registry.NewService(ops).DeleteSelected(context.Background(), tc.ids)
			assert.Equal(t, len(tc.ids), got.Requested)
			assert.Equal(t, tc.wantFailed, got.Failed)
			assert.Len(t, got.Errors, tc.wantFailed)
			assert.Equal(t, tc.wantMessage, got.Message())
		})
	}
}

func TestService_ParseSelectedSettlesEveryCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ops := mocks.NewMockFileOps(ctrl)
	ops.EXPECT().TriggerParse(gomock.Any(), "a").Return("Parse started", nil)
	ops.EXPECT().TriggerParse(gomock.Any(), "b").Return("", &backend.APIError{Status: 409, Message: "already parsing"})
	ops.EXPECT().TriggerParse(gomock.Any(), "c").Return("Parse started", nil)

	got := registry.NewService(ops).ParseSelected(context.Background(), []string{"a", "b", "c"})

	assert.Equal(t, 2, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	if assert.Len(t, got.Errors, 1) {
		assert.Equal(t, "b", got.Errors[0].ID)
		var apiErr *backend.APIError
		assert.True(t, errors.As(got.Errors[0], &apiErr))
	}
	assert.Equal(t, "parse triggered for 2 file(s), 1 failed or already parsing", got.Message())
}

func TestService_Refresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ops := mocks.NewMockFileOps(ctrl)
	gomock.InOrder(
		ops.EXPECT().ListFiles(gomock.Any()).Return([]backend.FileRecord{{UUID: "a"}}, nil),
		ops.EXPECT().ListFiles(gomock.Any()).Return(nil, errors.New("refused")),
	)

	svc := registry.NewService(ops)
	files, err := svc.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = svc.Refresh(context.Background())
	assert.ErrorContains(t, err, "list files")
}
