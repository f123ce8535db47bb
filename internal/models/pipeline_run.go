package models

import (
	"time"

	"gorm.io/datatypes"
)

type PipelineRun struct {
	RunID         string         `gorm:"primaryKey;type:varchar(36);comment:运行ID"`
	CrawlTime     time.Time      `gorm:"not null;index;comment:采集时间"`
	FinishedAt    *time.Time     `gorm:"comment:结束时间"`
	TargetDate    string         `gorm:"type:varchar(10);comment:目标交易日"`
	DaysRequested int            `gorm:"not null;default:1;comment:请求天数"`
	DaysFetched   int            `gorm:"not null;default:0;comment:实际获取天数"`
	Status        string         `gorm:"type:varchar(16);not null;comment:done/partial/failed"`
	FailedStage   *string        `gorm:"type:varchar(32);comment:失败阶段"`
	LastError     *string        `gorm:"type:text;comment:最近错误信息"`
	EntryCounts   datatypes.JSON `gorm:"type:jsonb;comment:各交易日条数"`
	StagesJSON    datatypes.JSON `gorm:"type:jsonb;comment:阶段结果"`
	AttemptsJSON  datatypes.JSON `gorm:"type:jsonb;comment:抓取尝试记录"`
}

func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
