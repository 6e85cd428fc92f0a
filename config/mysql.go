package config

import (
	"fmt"
	"os"
	"time"
)

// MySQLConfig MySQL 连接配置。
// 连接池参数按单实例小规格部署取默认值，生产环境应按压测结果调整。
type MySQLConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`

	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`       // 最大打开连接数
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`       // 最大空闲连接数
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"` // 连接最大存活时间

	SlowThreshold time.Duration `json:"slowThreshold" yaml:"slowThreshold"` // 慢查询日志阈值
}

// DefaultMySQLConfig 返回本地开发的默认配置。
// Host 优先读取 MYSQL_HOST，便于 docker-compose 内组网。
func DefaultMySQLConfig() MySQLConfig {
	host := os.Getenv("MYSQL_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	return MySQLConfig{
		Host:            host,
		Port:            3306,
		User:            "wavechat",
		Password:        "wavechat",
		Database:        "wavechat",
		MaxOpenConns:    100,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		SlowThreshold:   200 * time.Millisecond,
	}
}

// DSN 拼接 gorm mysql driver 所需的连接串。
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}
