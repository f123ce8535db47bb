package models

import (
	"time"

	"gorm.io/datatypes"
)

type RawBoardSnapshot struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement;comment:快照ID"`
	TradingDate string         `gorm:"type:varchar(10);index;comment:交易日"`
	Category    string         `gorm:"type:varchar(8);not null;comment:榜单类别"`
	SortField   string         `gorm:"type:varchar(8);not null;comment:排序字段"`
	FetchedAt   time.Time      `gorm:"not null;comment:获取时间"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null;comment:原始载荷"`
}

func (RawBoardSnapshot) TableName() string {
	return "raw_board_snapshots"
}
