package dto

import "atende-agora/backend/internal/model"

// ── 部门与通知号码 DTO ──

// SectorPhoneRequest 新增或修改号码
type SectorPhoneRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,max=30"`
}

// SectorPhoneResponse 号码响应
type SectorPhoneResponse struct {
	ID          string           `json:"id"`
	Sector      model.SectorCode `json:"sector"`
	PhoneNumber string           `json:"phone_number"`
}

// SectorPhonesGroup 按部门分组的号码列表
type SectorPhonesGroup struct {
	Sector model.SectorCode      `json:"sector"`
	Name   string                `json:"name"`
	Phones []SectorPhoneResponse `json:"phones"`
}
