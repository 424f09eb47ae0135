package model

import "strings"

// SectorCode 负责处理接待请求的部门，取值为封闭枚举
type SectorCode string

const (
	SectorRH           SectorCode = "RH"
	SectorDisciplina   SectorCode = "DISCIPLINA"
	SectorDP           SectorCode = "DP"
	SectorPlanejamento SectorCode = "PLANEJAMENTO"
)

// AllSectors 返回全部合法部门，顺序固定
func AllSectors() []SectorCode {
	return []SectorCode{SectorRH, SectorDisciplina, SectorDP, SectorPlanejamento}
}

// Valid 判断是否属于枚举
func (s SectorCode) Valid() bool {
	switch s {
	case SectorRH, SectorDisciplina, SectorDP, SectorPlanejamento:
		return true
	}
	return false
}

// ParseSector 解析部门编码，大小写与首尾空白不敏感
func ParseSector(raw string) (SectorCode, bool) {
	s := SectorCode(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// Sector 部门表，对应 sectors（迁移时写入四个固定部门）
type Sector struct {
	SectorID int        `gorm:"primaryKey;autoIncrement"              json:"id"`
	Code     SectorCode `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	Name     string     `gorm:"type:varchar(100);not null"            json:"name"`
}

// TableName 指定表名
func (Sector) TableName() string { return "sectors" }

// SectorPhone 部门通知号码表，对应 sector_phones
type SectorPhone struct {
	PhoneID     string     `gorm:"type:varchar(36);primaryKey"      json:"id"`
	SectorID    int        `gorm:"not null;index"                   json:"-"`
	Sector      SectorCode `gorm:"-"                                json:"sector"`
	PhoneNumber string     `gorm:"type:varchar(20);not null"        json:"phone_number"`
	BaseModel

	SectorRef *Sector `gorm:"foreignKey:SectorID;references:SectorID" json:"-"`
}

// TableName 指定表名
func (SectorPhone) TableName() string { return "sector_phones" }
