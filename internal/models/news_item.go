package models

import (
	"time"

	"gorm.io/datatypes"
)

type NewsItem struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement;comment:记录ID"`
	ContentHash     string         `gorm:"type:varchar(64);not null;uniqueIndex;comment:标题+链接摘要"`
	PublishedAt     time.Time      `gorm:"index;comment:发布时间"`
	Title           string         `gorm:"type:text;not null;comment:标题"`
	ContentPreview  string         `gorm:"type:text;comment:内容摘要"`
	SourceTag       string         `gorm:"type:varchar(32);index;comment:来源"`
	URL             string         `gorm:"type:text;comment:原文链接"`
	Author          string         `gorm:"type:text;comment:作者"`
	StockReferences datatypes.JSON `gorm:"type:jsonb;comment:关联股票"`
	IsPinned        bool           `gorm:"not null;default:false;comment:是否置顶"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;comment:入库时间"`
}

func (NewsItem) TableName() string {
	return "news_items"
}
