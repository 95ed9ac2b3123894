// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SystemSettingTable represents the 'system.setting' table
type SystemSettingTable struct {
	Table       string
	Key         string
	Value       string
	Description string
	UpdatedAt   string
}

// SystemSetting is the schema definition for system.setting
var SystemSetting = SystemSettingTable{
	Table:       "system.setting",
	Key:         "key",
	Value:       "value",
	Description: "description",
	UpdatedAt:   "updatedat",
}
