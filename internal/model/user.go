package model

import "time"

// User 只保留下单需要的字段，账号与认证由外部服务维护。
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name      string `gorm:"size:128" json:"name"`
	Email     string `gorm:"size:128;uniqueIndex" json:"email"`
	AddressID *uint  `json:"address_id,omitempty"`
}

func (User) TableName() string { return "users" }
