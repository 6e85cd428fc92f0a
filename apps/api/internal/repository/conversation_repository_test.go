package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"WaveChat/config"
	"WaveChat/model"
	"WaveChat/pkg/async"
	"WaveChat/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var repositoryTestOnce sync.Once

func initRepositoryTestEnv() {
	repositoryTestOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
		_ = async.Init(config.DefaultAsyncConfig())
	})
}

// newTestDB 内存库，表结构由线上模型迁移生成。
// 连接数限制为 1：内存库按连接隔离，连接池扩容会丢表。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Conversation{},
		&model.ConversationMessage{},
		&model.Message{},
		&model.UserRelation{},
	))
	return db
}

// seedConversationPair 建立双方各自的会话视图，返回两侧视图 id
func seedConversationPair(t *testing.T, db *gorm.DB, aUUID, bUUID string) (int64, int64) {
	t.Helper()

	now := time.Now()
	a := &model.Conversation{HolderUuid: aUUID, TargetUuid: bUUID, LastActivityAt: now}
	b := &model.Conversation{HolderUuid: bUUID, TargetUuid: aUUID, LastActivityAt: now}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)
	return a.Id, b.Id
}

// seedLinkedMessage 写入消息本体并链接到指定视图
func seedLinkedMessage(t *testing.T, db *gorm.DB, id int64, senderUUID, recipientUUID string, convIDs ...int64) {
	t.Helper()

	msg := &model.Message{
		Id:            id,
		SenderUuid:    senderUUID,
		RecipientUuid: recipientUUID,
		Body:          "hello",
	}
	require.NoError(t, db.Create(msg).Error)
	for _, convID := range convIDs {
		require.NoError(t, db.Create(&model.ConversationMessage{
			ConversationId: convID,
			MessageId:      id,
		}).Error)
	}
}

func messageExists(t *testing.T, db *gorm.DB, id int64) bool {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&model.Message{}).Where("id = ?", id).Count(&count).Error)
	return count > 0
}

func linkCount(t *testing.T, db *gorm.DB, conversationID int64) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&model.ConversationMessage{}).
		Where("conversation_id = ?", conversationID).Count(&count).Error)
	return count
}

func TestDeleteMessageForHolderRecyclesOrphan(t *testing.T) {
	initRepositoryTestEnv()
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	aConv, bConv := seedConversationPair(t, db, "alice-uuid", "bob-uuid")
	seedLinkedMessage(t, db, 1001, "alice-uuid", "bob-uuid", aConv, bConv)

	// 第一侧删除：只断开自己视图的链接，消息本体保留
	require.NoError(t, repo.DeleteMessageForHolder(ctx, "alice-uuid", aConv, 1001))
	assert.True(t, messageExists(t, db, 1001))
	assert.Equal(t, int64(0), linkCount(t, db, aConv))
	assert.Equal(t, int64(1), linkCount(t, db, bConv))

	// 第二侧删除：最后一条链接断开，消息本体同事务回收
	require.NoError(t, repo.DeleteMessageForHolder(ctx, "bob-uuid", bConv, 1001))
	assert.False(t, messageExists(t, db, 1001))

	// 链接已不存在，再删报未找到
	err := repo.DeleteMessageForHolder(ctx, "bob-uuid", bConv, 1001)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteMessageForHolderOwnership(t *testing.T) {
	initRepositoryTestEnv()
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	aConv, bConv := seedConversationPair(t, db, "alice-uuid", "bob-uuid")
	seedLinkedMessage(t, db, 1002, "alice-uuid", "bob-uuid", aConv, bConv)

	// 不是该视图的持有者
	err := repo.DeleteMessageForHolder(ctx, "mallory-uuid", aConv, 1002)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// 拿着对方视图 id 也删不动
	err = repo.DeleteMessageForHolder(ctx, "alice-uuid", bConv, 1002)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	assert.True(t, messageExists(t, db, 1002))
	assert.Equal(t, int64(1), linkCount(t, db, aConv))
}

func TestDeleteConversationRecyclesOnlyOrphans(t *testing.T) {
	initRepositoryTestEnv()
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	aConv, bConv := seedConversationPair(t, db, "alice-uuid", "bob-uuid")
	// 2001 双侧可见；2002 只剩 alice 这一侧的链接
	seedLinkedMessage(t, db, 2001, "alice-uuid", "bob-uuid", aConv, bConv)
	seedLinkedMessage(t, db, 2002, "bob-uuid", "alice-uuid", aConv)

	require.NoError(t, repo.DeleteConversation(ctx, "alice-uuid", aConv))

	// 自己的视图与链接消失，对端视图不受影响
	_, err := repo.GetOwnedConversation(ctx, "alice-uuid", aConv)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = repo.GetOwnedConversation(ctx, "bob-uuid", bConv)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), linkCount(t, db, aConv))

	// 2002 成为孤儿被回收，2001 仍被对端视图链接
	assert.False(t, messageExists(t, db, 2002))
	assert.True(t, messageExists(t, db, 2001))

	// 对端删除视图后 2001 也回收
	require.NoError(t, repo.DeleteConversation(ctx, "bob-uuid", bConv))
	assert.False(t, messageExists(t, db, 2001))

	// 视图已删，再删报未找到
	err = repo.DeleteConversation(ctx, "bob-uuid", bConv)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
