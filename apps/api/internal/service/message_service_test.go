package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/dto"
	"WaveChat/apps/api/internal/eligibility"
	"WaveChat/apps/api/internal/repository"
	"WaveChat/config"
	"WaveChat/consts"
	rediskey "WaveChat/consts/redisKey"
	"WaveChat/model"
	"WaveChat/pkg/async"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/util"
	"WaveChat/pkg/wsevent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var serviceTestOnce sync.Once

func initServiceTestEnv() {
	serviceTestOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
		_ = async.Init(config.DefaultAsyncConfig())
		util.SetAccessTokenConfig(config.DefaultAccessTokenConfig())
	})
}

// fakeConversationRepository 函数字段式假仓储
type fakeConversationRepository struct {
	composeMessageFn         func(ctx context.Context, senderUUID, recipientUUID, body string) (*repository.ComposeResult, eligibility.Decision, error)
	getOwnedConversationFn   func(ctx context.Context, holderUUID string, conversationID int64) (*model.Conversation, error)
	listConversationsFn      func(ctx context.Context, holderUUID string, mode repository.ConversationMode, cursor *repository.ConversationCursor, limit int) ([]*model.Conversation, error)
	lastMessageFn            func(ctx context.Context, conversationID int64) (*model.Message, error)
	listMessagesFn           func(ctx context.Context, conversationID int64, cursor *repository.MessageCursor, limit int) ([]*model.Message, error)
	deleteMessageForHolderFn func(ctx context.Context, holderUUID string, conversationID, messageID int64) error
	deleteConversationFn     func(ctx context.Context, holderUUID string, conversationID int64) error
	acceptConversationFn     func(ctx context.Context, holderUUID string, conversationID int64) error
	markReadFn               func(ctx context.Context, holderUUID string, conversationID int64, upTo time.Time) (int64, error)
}

func (f *fakeConversationRepository) ComposeMessage(ctx context.Context, senderUUID, recipientUUID, body string) (*repository.ComposeResult, eligibility.Decision, error) {
	if f.composeMessageFn == nil {
		return nil, eligibility.Allow, errors.New("unexpected ComposeMessage call")
	}
	return f.composeMessageFn(ctx, senderUUID, recipientUUID, body)
}

func (f *fakeConversationRepository) GetOwnedConversation(ctx context.Context, holderUUID string, conversationID int64) (*model.Conversation, error) {
	if f.getOwnedConversationFn == nil {
		return nil, errors.New("unexpected GetOwnedConversation call")
	}
	return f.getOwnedConversationFn(ctx, holderUUID, conversationID)
}

func (f *fakeConversationRepository) ListConversations(ctx context.Context, holderUUID string, mode repository.ConversationMode, cursor *repository.ConversationCursor, limit int) ([]*model.Conversation, error) {
	if f.listConversationsFn == nil {
		return nil, errors.New("unexpected ListConversations call")
	}
	return f.listConversationsFn(ctx, holderUUID, mode, cursor, limit)
}

func (f *fakeConversationRepository) LastMessage(ctx context.Context, conversationID int64) (*model.Message, error) {
	if f.lastMessageFn == nil {
		return nil, errors.New("unexpected LastMessage call")
	}
	return f.lastMessageFn(ctx, conversationID)
}

func (f *fakeConversationRepository) ListMessages(ctx context.Context, conversationID int64, cursor *repository.MessageCursor, limit int) ([]*model.Message, error) {
	if f.listMessagesFn == nil {
		return nil, errors.New("unexpected ListMessages call")
	}
	return f.listMessagesFn(ctx, conversationID, cursor, limit)
}

func (f *fakeConversationRepository) DeleteMessageForHolder(ctx context.Context, holderUUID string, conversationID, messageID int64) error {
	if f.deleteMessageForHolderFn == nil {
		return errors.New("unexpected DeleteMessageForHolder call")
	}
	return f.deleteMessageForHolderFn(ctx, holderUUID, conversationID, messageID)
}

func (f *fakeConversationRepository) DeleteConversation(ctx context.Context, holderUUID string, conversationID int64) error {
	if f.deleteConversationFn == nil {
		return errors.New("unexpected DeleteConversation call")
	}
	return f.deleteConversationFn(ctx, holderUUID, conversationID)
}

func (f *fakeConversationRepository) AcceptConversation(ctx context.Context, holderUUID string, conversationID int64) error {
	if f.acceptConversationFn == nil {
		return errors.New("unexpected AcceptConversation call")
	}
	return f.acceptConversationFn(ctx, holderUUID, conversationID)
}

func (f *fakeConversationRepository) MarkRead(ctx context.Context, holderUUID string, conversationID int64, upTo time.Time) (int64, error) {
	if f.markReadFn == nil {
		return 0, errors.New("unexpected MarkRead call")
	}
	return f.markReadFn(ctx, holderUUID, conversationID, upTo)
}

// recordingPublisher 记录发布调用的假发布器
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string]wsevent.ConversationMessage
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[string]wsevent.ConversationMessage)}
}

func (p *recordingPublisher) PublishConversationMessage(_ context.Context, channel string, event wsevent.ConversationMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[channel] = event
}

func (p *recordingPublisher) get(channel string) (wsevent.ConversationMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.events[channel]
	return e, ok
}

func TestSendMessageSuccess(t *testing.T) {
	initServiceTestEnv()

	now := time.Now()
	repo := &fakeConversationRepository{
		composeMessageFn: func(_ context.Context, senderUUID, recipientUUID, body string) (*repository.ComposeResult, eligibility.Decision, error) {
			assert.Equal(t, "alice-uuid", senderUUID)
			assert.Equal(t, "bob-uuid", recipientUUID)
			assert.Equal(t, "hello", body)
			return &repository.ComposeResult{
				Message: model.Message{
					Id:            1001,
					SenderUuid:    senderUUID,
					RecipientUuid: recipientUUID,
					Body:          body,
					HasReceipt:    true,
					CreatedAt:     now,
				},
				SenderConversationId:    11,
				RecipientConversationId: 22,
			}, eligibility.Allow, nil
		},
	}
	pub := newRecordingPublisher()
	svc := NewMessageService(repo, pub)

	resp, err := svc.SendMessage(context.Background(), "alice-uuid", &dto.SendMessageRequest{
		RecipientUUID: "bob-uuid",
		Body:          "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "1001", resp.MessageID)
	assert.Equal(t, "11", resp.ConversationID)
	assert.True(t, resp.HasReceipt)
	assert.Equal(t, now.UnixMilli(), resp.CreatedAt)

	// 事件扇出是异步的：双方频道各收到一条，会话 id 取各自视图
	require.Eventually(t, func() bool {
		_, okA := pub.get(rediskey.ConvEventChannel("alice-uuid"))
		_, okB := pub.get(rediskey.ConvEventChannel("bob-uuid"))
		return okA && okB
	}, time.Second, 10*time.Millisecond)

	recipientEvent, _ := pub.get(rediskey.ConvEventChannel("bob-uuid"))
	assert.Equal(t, int64(22), recipientEvent.ConversationId)
	assert.Equal(t, int64(1001), recipientEvent.MessageId)

	senderEvent, _ := pub.get(rediskey.ConvEventChannel("alice-uuid"))
	assert.Equal(t, int64(11), senderEvent.ConversationId)
}

func TestSendMessageDenied(t *testing.T) {
	initServiceTestEnv()

	tests := []struct {
		name     string
		decision eligibility.Decision
		wantCode int32
	}{
		{"self", eligibility.DenySelf, consts.CodeSelfTarget},
		{"inaccessible", eligibility.DenyInaccessible, consts.CodeNotAccessible},
		{"blocked", eligibility.DenyBlock, consts.CodeBlocked},
		{"not_accepted", eligibility.DenyNotAccepted, consts.CodeNotAccepted},
		{"requests_disabled", eligibility.DenyRequestsDisabled, consts.CodeRequestsDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeConversationRepository{
				composeMessageFn: func(context.Context, string, string, string) (*repository.ComposeResult, eligibility.Decision, error) {
					return nil, tt.decision, nil
				},
			}
			svc := NewMessageService(repo, newRecordingPublisher())

			_, err := svc.SendMessage(context.Background(), "alice-uuid", &dto.SendMessageRequest{
				RecipientUUID: "bob-uuid",
				Body:          "hello",
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, bizerr.ExtractErrorCode(err))
		})
	}
}

func TestSendMessageBodyTooLarge(t *testing.T) {
	initServiceTestEnv()

	svc := NewMessageService(&fakeConversationRepository{}, newRecordingPublisher())

	_, err := svc.SendMessage(context.Background(), "alice-uuid", &dto.SendMessageRequest{
		RecipientUUID: "bob-uuid",
		Body:          strings.Repeat("字", 2000), // 6000 字节，超过 4096
	})
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeBodyTooLarge), bizerr.ExtractErrorCode(err))
}

func TestSendMessageRecipientNotFound(t *testing.T) {
	initServiceTestEnv()

	repo := &fakeConversationRepository{
		composeMessageFn: func(context.Context, string, string, string) (*repository.ComposeResult, eligibility.Decision, error) {
			return nil, eligibility.Allow, repository.ErrRecordNotFound
		},
	}
	svc := NewMessageService(repo, newRecordingPublisher())

	_, err := svc.SendMessage(context.Background(), "alice-uuid", &dto.SendMessageRequest{
		RecipientUUID: "ghost-uuid",
		Body:          "hello",
	})
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeUserNotFound), bizerr.ExtractErrorCode(err))
}

func TestDeleteMessageNotFound(t *testing.T) {
	initServiceTestEnv()

	repo := &fakeConversationRepository{
		deleteMessageForHolderFn: func(context.Context, string, int64, int64) error {
			return repository.ErrRecordNotFound
		},
	}
	svc := NewMessageService(repo, newRecordingPublisher())

	err := svc.DeleteMessage(context.Background(), "alice-uuid", 11, 1001)
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeMessageNotFound), bizerr.ExtractErrorCode(err))
}

func TestMarkRead(t *testing.T) {
	initServiceTestEnv()

	upTo := time.Now().UnixMilli()
	calls := 0
	repo := &fakeConversationRepository{
		markReadFn: func(_ context.Context, holderUUID string, conversationID int64, gotUpTo time.Time) (int64, error) {
			calls++
			assert.Equal(t, "bob-uuid", holderUUID)
			assert.Equal(t, int64(22), conversationID)
			assert.Equal(t, upTo, gotUpTo.UnixMilli())
			// 首次置 3 行，重复调用幂等返回 0 行
			if calls == 1 {
				return 3, nil
			}
			return 0, nil
		},
	}
	svc := NewMessageService(repo, newRecordingPublisher())

	resp, err := svc.MarkRead(context.Background(), "bob-uuid", 22, &dto.MarkReadRequest{UpTo: upTo})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.UpdatedCount)

	resp, err = svc.MarkRead(context.Background(), "bob-uuid", 22, &dto.MarkReadRequest{UpTo: upTo})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.UpdatedCount)
}

func TestMarkReadConversationNotFound(t *testing.T) {
	initServiceTestEnv()

	repo := &fakeConversationRepository{
		markReadFn: func(context.Context, string, int64, time.Time) (int64, error) {
			return 0, repository.ErrRecordNotFound
		},
	}
	svc := NewMessageService(repo, newRecordingPublisher())

	_, err := svc.MarkRead(context.Background(), "bob-uuid", 404, &dto.MarkReadRequest{UpTo: 1})
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeConversationNotFound), bizerr.ExtractErrorCode(err))
}
