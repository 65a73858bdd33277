package models

// AppSettings is the single mutable settings row (ID is always 1). Admin
// commands flip the monetization switch at runtime without a redeploy.
type AppSettings struct {
	ID uint `gorm:"primaryKey"`

	MonetizeEnabled      bool   `gorm:"default:true"`
	MonetizeIntervalHrs  int    `gorm:"default:12"`
	MonetizeTokenTTLMins int    `gorm:"default:30"`
	MonetizeMinWaitSecs  int    `gorm:"default:10"`
	SponsorURL           string

	WarnThreshold int `gorm:"default:3"`
	AdminChatID   int64
}

// Stats is the aggregate snapshot served to admins (bot /stats command and
// the HTTP admin API).
type Stats struct {
	TotalUsers       int64 `json:"total_users"`
	ActiveToday      int64 `json:"active_today"`
	BannedUsers      int64 `json:"banned_users"`
	ActiveSessions   int64 `json:"active_sessions"`
	TotalSessions    int64 `json:"total_sessions"`
	PendingReports   int64 `json:"pending_reports"`
	TotalReports     int64 `json:"total_reports"`
	MonetizeCurrent  int64 `json:"monetize_current"`
	MonetizeRequired int64 `json:"monetize_required"`
}
