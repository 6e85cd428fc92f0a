package manager

import "sync"

// ConnectionManager 管理所有在线 WebSocket 连接。
// 维护两套索引：
// - byKey(user_uuid:conn_id) 用于精确定位单条连接；
// - byUser(user_uuid -> conn_id -> client) 用于按接收方广播事件。
type ConnectionManager struct {
	mu       sync.RWMutex
	byKey    map[string]*Client
	byUser   map[string]map[string]*Client
	shutdown bool
}

// NewConnectionManager 创建连接管理器实例。
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		byKey:  make(map[string]*Client),
		byUser: make(map[string]map[string]*Client),
	}
}

// Register 注册一条连接。
// conn_id 由接入层生成，理论上不冲突；同键重复注册时替换并返回旧连接，
// 调用方应主动关闭 replaced，避免泄漏。
// 进入停机流程后返回 nil 且不再接收注册，调用方应直接关闭新连接。
func (m *ConnectionManager) Register(client *Client) (replaced *Client, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return nil, false
	}

	key := client.Key()
	if old, exists := m.byKey[key]; exists && old != client {
		replaced = old
	}

	m.byKey[key] = client
	userConns, exists := m.byUser[client.UserUUID()]
	if !exists {
		userConns = make(map[string]*Client)
		m.byUser[client.UserUUID()] = userConns
	}
	userConns[client.ConnID()] = client
	return replaced, true
}

// Unregister 注销一条连接。
// 只有当 map 中当前连接与入参完全一致时才删除，防止并发替换时误删新连接。
func (m *ConnectionManager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := client.Key()
	current, ok := m.byKey[key]
	if !ok || current != client {
		return
	}

	delete(m.byKey, key)
	if userConns, ok := m.byUser[client.UserUUID()]; ok {
		delete(userConns, client.ConnID())
		if len(userConns) == 0 {
			delete(m.byUser, client.UserUUID())
		}
	}
}

// SendToUser 向用户的所有在线连接广播事件。
// 返回成功入队的连接数量，可用于统计下行投递率。
func (m *ConnectionManager) SendToUser(userUUID string, msg []byte) int {
	m.mu.RLock()
	userConns, ok := m.byUser[userUUID]
	if !ok || len(userConns) == 0 {
		m.mu.RUnlock()
		return 0
	}
	clients := make([]*Client, 0, len(userConns))
	for _, client := range userConns {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.Enqueue(msg) {
			sent++
		}
	}
	return sent
}

// Count 返回当前在线连接数。
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byKey)
}

// Shutdown 关闭全部连接并阻止后续注册。
// 用于进程优雅退出阶段，确保不再接收新连接并尽快释放资源。
func (m *ConnectionManager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true

	clients := make([]*Client, 0, len(m.byKey))
	for _, client := range m.byKey {
		clients = append(clients, client)
	}
	m.byKey = make(map[string]*Client)
	m.byUser = make(map[string]map[string]*Client)
	m.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
