package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/dto"
	"WaveChat/consts"
	"WaveChat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMessageHTTPService struct {
	sendFn     func(context.Context, string, *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	deleteFn   func(context.Context, string, int64, int64) error
	markReadFn func(context.Context, string, int64, *dto.MarkReadRequest) (*dto.MarkReadResponse, error)
}

func (f *fakeMessageHTTPService) SendMessage(ctx context.Context, senderUUID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if f.sendFn == nil {
		return &dto.SendMessageResponse{}, nil
	}
	return f.sendFn(ctx, senderUUID, req)
}

func (f *fakeMessageHTTPService) DeleteMessage(ctx context.Context, userUUID string, conversationID, messageID int64) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, userUUID, conversationID, messageID)
}

func (f *fakeMessageHTTPService) MarkRead(ctx context.Context, userUUID string, conversationID int64, req *dto.MarkReadRequest) (*dto.MarkReadResponse, error) {
	if f.markReadFn == nil {
		return &dto.MarkReadResponse{}, nil
	}
	return f.markReadFn(ctx, userUUID, conversationID, req)
}

type resultBody struct {
	Code int `json:"code"`
}

var messageHandlerTestOnce sync.Once

func initMessageHandlerTest() {
	messageHandlerTestOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
		gin.SetMode(gin.TestMode)
	})
}

func decodeResultCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body resultBody
	err := json.Unmarshal(w.Body.Bytes(), &body)
	require.NoError(t, err)
	return body.Code
}

func TestMessageHandlerSendMessage(t *testing.T) {
	initMessageHandlerTest()

	tests := []struct {
		name       string
		body       string
		authed     bool
		setupSvc   func(*fakeMessageHTTPService, *bool)
		wantCode   int
		wantCalled bool
	}{
		{
			name:       "unauthenticated",
			body:       `{"recipientUuid":"u2","body":"hi"}`,
			authed:     false,
			wantCode:   consts.CodeUnauthorized,
			wantCalled: false,
		},
		{
			name:       "bind_json_failed",
			body:       "{",
			authed:     true,
			wantCode:   consts.CodeParamError,
			wantCalled: false,
		},
		{
			name:   "success",
			body:   `{"recipientUuid":"u2","body":"hi"}`,
			authed: true,
			setupSvc: func(svc *fakeMessageHTTPService, called *bool) {
				svc.sendFn = func(_ context.Context, senderUUID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
					*called = true
					require.Equal(t, "u1", senderUUID)
					require.Equal(t, "u2", req.RecipientUUID)
					return &dto.SendMessageResponse{MessageID: "1"}, nil
				}
			},
			wantCode:   consts.CodeSuccess,
			wantCalled: true,
		},
		{
			name:   "business_error_passthrough",
			body:   `{"recipientUuid":"u2","body":"hi"}`,
			authed: true,
			setupSvc: func(svc *fakeMessageHTTPService, called *bool) {
				svc.sendFn = func(_ context.Context, _ string, _ *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
					*called = true
					return nil, bizerr.New(consts.CodeBlocked)
				}
			},
			wantCode:   consts.CodeBlocked,
			wantCalled: true,
		},
		{
			name:   "internal_error",
			body:   `{"recipientUuid":"u2","body":"hi"}`,
			authed: true,
			setupSvc: func(svc *fakeMessageHTTPService, called *bool) {
				svc.sendFn = func(_ context.Context, _ string, _ *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
					*called = true
					return nil, errors.New("internal")
				}
			},
			wantCode:   consts.CodeInternalError,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &fakeMessageHTTPService{}
			if tt.setupSvc != nil {
				tt.setupSvc(svc, &called)
			}

			h := NewMessageHandler(svc)

			w := httptest.NewRecorder()
			req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/messages", bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			c, _ := gin.CreateTestContext(w)
			c.Request = req
			if tt.authed {
				c.Set("user_uuid", "u1")
			}

			h.SendMessage(c)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantCode, decodeResultCode(t, w))
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestMessageHandlerDeleteMessage(t *testing.T) {
	initMessageHandlerTest()

	tests := []struct {
		name       string
		convID     string
		msgID      string
		setupSvc   func(*fakeMessageHTTPService, *bool)
		wantCode   int
		wantCalled bool
	}{
		{
			name:       "bad_conversation_id",
			convID:     "abc",
			msgID:      "7",
			wantCode:   consts.CodeParamError,
			wantCalled: false,
		},
		{
			name:       "bad_message_id",
			convID:     "3",
			msgID:      "-1",
			wantCode:   consts.CodeParamError,
			wantCalled: false,
		},
		{
			name:   "success",
			convID: "3",
			msgID:  "7",
			setupSvc: func(svc *fakeMessageHTTPService, called *bool) {
				svc.deleteFn = func(_ context.Context, userUUID string, conversationID, messageID int64) error {
					*called = true
					require.Equal(t, "u1", userUUID)
					require.Equal(t, int64(3), conversationID)
					require.Equal(t, int64(7), messageID)
					return nil
				}
			},
			wantCode:   consts.CodeSuccess,
			wantCalled: true,
		},
		{
			name:   "not_found_passthrough",
			convID: "3",
			msgID:  "7",
			setupSvc: func(svc *fakeMessageHTTPService, called *bool) {
				svc.deleteFn = func(_ context.Context, _ string, _, _ int64) error {
					*called = true
					return bizerr.New(consts.CodeMessageNotFound)
				}
			},
			wantCode:   consts.CodeMessageNotFound,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &fakeMessageHTTPService{}
			if tt.setupSvc != nil {
				tt.setupSvc(svc, &called)
			}

			h := NewMessageHandler(svc)

			w := httptest.NewRecorder()
			req, err := http.NewRequest(http.MethodDelete, "/api/v1/auth/conversations/"+tt.convID+"/messages/"+tt.msgID, nil)
			require.NoError(t, err)

			c, _ := gin.CreateTestContext(w)
			c.Request = req
			c.Set("user_uuid", "u1")
			c.Params = gin.Params{
				{Key: "conversationId", Value: tt.convID},
				{Key: "messageId", Value: tt.msgID},
			}

			h.DeleteMessage(c)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantCode, decodeResultCode(t, w))
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestMessageHandlerMarkRead(t *testing.T) {
	initMessageHandlerTest()

	called := false
	svc := &fakeMessageHTTPService{
		markReadFn: func(_ context.Context, userUUID string, conversationID int64, req *dto.MarkReadRequest) (*dto.MarkReadResponse, error) {
			called = true
			require.Equal(t, "u1", userUUID)
			require.Equal(t, int64(3), conversationID)
			require.Equal(t, int64(1700000000000), req.UpTo)
			return &dto.MarkReadResponse{UpdatedCount: 2}, nil
		},
	}

	h := NewMessageHandler(svc)

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/conversations/3/read",
		bytes.NewBufferString(`{"upTo":1700000000000}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("user_uuid", "u1")
	c.Params = gin.Params{{Key: "conversationId", Value: "3"}}

	h.MarkRead(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, consts.CodeSuccess, decodeResultCode(t, w))
	assert.True(t, called)

	var body struct {
		Data dto.MarkReadResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Data.UpdatedCount)
}
