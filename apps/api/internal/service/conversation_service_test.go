package service

import (
	"context"
	"testing"
	"time"

	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/dto"
	"WaveChat/apps/api/internal/repository"
	"WaveChat/config"
	"WaveChat/consts"
	"WaveChat/model"
	"WaveChat/pkg/ticket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConversationService(repo repository.IConversationRepository) ConversationService {
	return NewConversationService(repo, ticket.NewIssuer(config.DefaultTicketConfig()))
}

func TestListConversations(t *testing.T) {
	initServiceTestEnv()

	now := time.Now()
	readAt := now.Add(-time.Minute)
	repo := &fakeConversationRepository{
		listConversationsFn: func(_ context.Context, holderUUID string, mode repository.ConversationMode, cursor *repository.ConversationCursor, limit int) ([]*model.Conversation, error) {
			assert.Equal(t, "alice-uuid", holderUUID)
			assert.Equal(t, repository.ModeInbox, mode)
			assert.Nil(t, cursor)
			return []*model.Conversation{
				{Id: 11, HolderUuid: "alice-uuid", TargetUuid: "bob-uuid", LastActivityAt: now},
				{Id: 7, HolderUuid: "alice-uuid", TargetUuid: "carol-uuid", LastActivityAt: now.Add(-time.Hour)},
			}, nil
		},
		lastMessageFn: func(_ context.Context, conversationID int64) (*model.Message, error) {
			if conversationID == 11 {
				return &model.Message{
					Id:            1001,
					SenderUuid:    "alice-uuid",
					RecipientUuid: "bob-uuid",
					Body:          "hi",
					HasReceipt:    true,
					ReadAt:        &readAt,
					CreatedAt:     now,
				}, nil
			}
			// 消息都被本侧删光的会话
			return nil, nil
		},
	}
	svc := newTestConversationService(repo)

	resp, err := svc.ListConversations(context.Background(), "alice-uuid", &dto.ListConversationsRequest{Limit: 20})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	assert.Equal(t, "11", resp.Items[0].ConversationID)
	require.NotNil(t, resp.Items[0].LastMessage)
	assert.Equal(t, readAt.UnixMilli(), resp.Items[0].LastMessage.ReadAt)

	assert.Equal(t, "7", resp.Items[1].ConversationID)
	assert.Nil(t, resp.Items[1].LastMessage)

	// 未满一页，不给下一页游标
	assert.Empty(t, resp.NextCursor)
}

func TestListConversationsCursorRoundTrip(t *testing.T) {
	initServiceTestEnv()

	base := time.UnixMilli(time.Now().UnixMilli()) // 截断到毫秒精度
	var page2Cursor *repository.ConversationCursor
	repo := &fakeConversationRepository{
		listConversationsFn: func(_ context.Context, _ string, _ repository.ConversationMode, cursor *repository.ConversationCursor, limit int) ([]*model.Conversation, error) {
			if cursor == nil {
				// 第一页恰好满页，触发游标生成
				out := make([]*model.Conversation, limit)
				for i := range out {
					out[i] = &model.Conversation{
						Id:             int64(100 - i),
						HolderUuid:     "alice-uuid",
						TargetUuid:     "peer",
						LastActivityAt: base.Add(-time.Duration(i) * time.Second),
					}
				}
				return out, nil
			}
			page2Cursor = cursor
			return nil, nil
		},
	}
	svc := newTestConversationService(repo)

	page1, err := svc.ListConversations(context.Background(), "alice-uuid", &dto.ListConversationsRequest{Limit: 2})
	require.NoError(t, err)
	require.NotEmpty(t, page1.NextCursor)

	_, err = svc.ListConversations(context.Background(), "alice-uuid", &dto.ListConversationsRequest{
		Limit:  2,
		Cursor: page1.NextCursor,
	})
	require.NoError(t, err)
	require.NotNil(t, page2Cursor)
	assert.Equal(t, int64(99), page2Cursor.BeforeId)
	assert.Equal(t, base.Add(-time.Second).UnixMilli(), page2Cursor.BeforeActivity.UnixMilli())
}

func TestListConversationsBadCursor(t *testing.T) {
	initServiceTestEnv()

	svc := newTestConversationService(&fakeConversationRepository{})

	_, err := svc.ListConversations(context.Background(), "alice-uuid", &dto.ListConversationsRequest{
		Cursor: "not-a-cursor!!!",
	})
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeInvalidCursor), bizerr.ExtractErrorCode(err))
}

func TestListMessagesReceiptVisibility(t *testing.T) {
	initServiceTestEnv()

	now := time.Now()
	readAt := now.Add(-time.Minute)
	repo := &fakeConversationRepository{
		getOwnedConversationFn: func(context.Context, string, int64) (*model.Conversation, error) {
			return &model.Conversation{Id: 11, HolderUuid: "alice-uuid", TargetUuid: "bob-uuid"}, nil
		},
		listMessagesFn: func(context.Context, int64, *repository.MessageCursor, int) ([]*model.Message, error) {
			return []*model.Message{
				// 参与回执且已读：read_at 对外可见
				{Id: 2, SenderUuid: "alice-uuid", RecipientUuid: "bob-uuid", HasReceipt: true, ReadAt: &readAt, CreatedAt: now},
				// 不参与回执：内部已记录已读时间也不对外暴露
				{Id: 1, SenderUuid: "bob-uuid", RecipientUuid: "alice-uuid", HasReceipt: false, ReadAt: &readAt, CreatedAt: now.Add(-time.Minute)},
			}, nil
		},
	}
	svc := newTestConversationService(repo)

	resp, err := svc.ListMessages(context.Background(), "alice-uuid", 11, &dto.ListMessagesRequest{Limit: 50})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	assert.Equal(t, readAt.UnixMilli(), resp.Items[0].ReadAt)
	assert.Zero(t, resp.Items[1].ReadAt)
}

func TestListMessagesNotOwned(t *testing.T) {
	initServiceTestEnv()

	repo := &fakeConversationRepository{
		getOwnedConversationFn: func(context.Context, string, int64) (*model.Conversation, error) {
			return nil, repository.ErrRecordNotFound
		},
	}
	svc := newTestConversationService(repo)

	_, err := svc.ListMessages(context.Background(), "mallory-uuid", 11, &dto.ListMessagesRequest{})
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeConversationNotFound), bizerr.ExtractErrorCode(err))
}

func TestAcceptConversationIdempotent(t *testing.T) {
	initServiceTestEnv()

	calls := 0
	repo := &fakeConversationRepository{
		acceptConversationFn: func(_ context.Context, holderUUID string, conversationID int64) error {
			calls++
			assert.Equal(t, "bob-uuid", holderUUID)
			assert.Equal(t, int64(22), conversationID)
			return nil
		},
	}
	svc := newTestConversationService(repo)

	require.NoError(t, svc.AcceptConversation(context.Background(), "bob-uuid", 22))
	require.NoError(t, svc.AcceptConversation(context.Background(), "bob-uuid", 22))
	assert.Equal(t, 2, calls)
}

func TestDeleteConversationNotFound(t *testing.T) {
	initServiceTestEnv()

	repo := &fakeConversationRepository{
		deleteConversationFn: func(context.Context, string, int64) error {
			return repository.ErrRecordNotFound
		},
	}
	svc := newTestConversationService(repo)

	err := svc.DeleteConversation(context.Background(), "alice-uuid", 404)
	require.Error(t, err)
	assert.Equal(t, int32(consts.CodeConversationNotFound), bizerr.ExtractErrorCode(err))
}

func TestIssueWSTicket(t *testing.T) {
	initServiceTestEnv()

	cfg := config.DefaultTicketConfig()
	svc := NewConversationService(&fakeConversationRepository{}, ticket.NewIssuer(cfg))

	resp, err := svc.IssueWSTicket(context.Background(), "alice-uuid")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Ticket)

	// 票据可被校验端识别并还原用户身份
	verifier, err := ticket.NewVerifier(cfg)
	require.NoError(t, err)
	userUUID, err := verifier.Verify(resp.Ticket, ticket.PurposeConversationsWS)
	require.NoError(t, err)
	assert.Equal(t, "alice-uuid", userUUID)
}
