package model

// Preference persisted key-value setting
// Preference 偏好设置表结构
type Preference struct {
	Name      string `gorm:"column:name;type:varchar(64);primaryKey" json:"name"`
	Value     string `gorm:"column:value;type:text;not null" json:"value"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updatedAt"`
}
