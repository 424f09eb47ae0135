package dto

// ── 工具 DTO ──

// CertificateWindowRequest 72 小时证明期限计算请求
// 时间接受 RFC3339 或 "YYYY-MM-DDTHH:MM"（按服务时区解析）
type CertificateWindowRequest struct {
	AttestedAt  string `json:"attested_at"  binding:"required"`
	DeliveredAt string `json:"delivered_at" binding:"required"`
}

// CertificateWindowResponse 计算结果
type CertificateWindowResponse struct {
	ElapsedHours   int    `json:"elapsed_hours"`
	ElapsedMinutes int    `json:"elapsed_minutes"`
	WithinLimit    bool   `json:"within_limit"`
	Deadline       string `json:"deadline"`
}
