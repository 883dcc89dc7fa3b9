package db

import "time"

// User 定义了管理员账号模型，密码以 bcrypt 哈希存储。
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"size:191;uniqueIndex"`
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
