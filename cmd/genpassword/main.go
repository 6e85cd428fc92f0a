package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// 开发辅助工具：为测试账号生成 bcrypt 密码哈希。
// 用法: go run ./cmd/genpassword <明文密码>
func main() {
	plainPassword := "123456"
	if len(os.Args) > 1 {
		plainPassword = os.Args[1]
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("加密失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("明文密码: %s\n", plainPassword)
	fmt.Printf("加密后的密码: %s\n", string(hashedPassword))
	fmt.Println("\n将加密后的密码写入 user_info.password_hash 即可")
}
