package dto

// ── 员工目录 DTO ──

// EmployeeResponse 员工信息（前台自动填充使用）
type EmployeeResponse struct {
	Registration string `json:"registration"`
	Name         string `json:"name"`
	Position     string `json:"position"`
}

// ImportEmployeeResponse 批量导入员工响应
type ImportEmployeeResponse struct {
	Total   int                   `json:"total"`
	Success int                   `json:"success"`
	Failed  int                   `json:"failed"`
	Errors  []ImportEmployeeError `json:"errors,omitempty"`
}

// ImportEmployeeError 导入错误详情
type ImportEmployeeError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
