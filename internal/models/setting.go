package models

import "time"

// SettingType marks how an app setting value should be interpreted.
type SettingType string

const (
	SettingTypeString  SettingType = "STRING"
	SettingTypeBoolean SettingType = "BOOLEAN"
)

// RoleKey identifies a fixed organizational role stored in app settings.
type RoleKey string

const (
	RoleKeyHRManager      RoleKey = "hr_manager_employee_id"
	RoleKeyFinanceManager RoleKey = "finance_manager_employee_id"
	RoleKeyGeneralManager RoleKey = "general_manager_employee_id"
)

// AppSetting is a key/value configuration row.
type AppSetting struct {
	Key         string      `db:"key" json:"key"`
	Value       string      `db:"value" json:"value"`
	Type        SettingType `db:"type" json:"type"`
	Description *string     `db:"description" json:"description,omitempty"`
	UpdatedBy   *string     `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
