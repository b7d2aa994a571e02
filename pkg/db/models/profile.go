package models

import "time"

// Profile mirrors an identity provider user. The trial window is stamped on
// first insert and never moved afterwards.
type Profile struct {
	ID         string     `gorm:"column:id;type:text;primaryKey"`
	Email      *string    `gorm:"column:email;type:text"`
	FullName   *string    `gorm:"column:full_name;type:text"`
	TrialStart *time.Time `gorm:"column:trial_start"`
	TrialEnd   *time.Time `gorm:"column:trial_end"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}
