package model

// Employee 员工目录表，对应 employees
// 仅用于前台按工号自动填充姓名与职位，不参与接待记录的校验
type Employee struct {
	Registration string `gorm:"type:varchar(50);primaryKey" json:"registration"`
	Name         string `gorm:"type:varchar(150);not null"  json:"name"`
	Position     string `gorm:"type:varchar(100);not null"  json:"position"`
	BaseModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }
